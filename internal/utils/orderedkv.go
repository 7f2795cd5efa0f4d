package utils

import (
	"bytes"
	"encoding/json"
	"sort"
)

type OrderedKV[T any] struct {
	Value T
	Order int64
}

// OrderedKVMap marshals to a JSON object whose keys follow Order.
type OrderedKVMap[T any] map[string]OrderedKV[T]

// Set keeps the first position of key and replaces its value.
func (om OrderedKVMap[T]) Set(key string, value T) {
	if existing, ok := om[key]; ok {
		om[key] = OrderedKV[T]{Value: value, Order: existing.Order}
		return
	}
	om[key] = OrderedKV[T]{Value: value, Order: int64(len(om))}
}

func (om OrderedKVMap[T]) Get(key string) (T, bool) {
	v, ok := om[key]
	return v.Value, ok
}

func (om OrderedKVMap[T]) MarshalJSON() ([]byte, error) {
	type pair struct {
		key   string
		value T
		order int64
	}
	pairs := make([]pair, 0, len(om))
	for k, v := range om {
		pairs = append(pairs, pair{
			key:   k,
			value: v.Value,
			order: v.Order,
		})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].order == pairs[j].order {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].order < pairs[j].order
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
