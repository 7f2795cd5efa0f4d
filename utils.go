package biomap

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

func JsonPrint(tag string, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%s: error marshaling: %v\n", tag, err)
		return
	}
	if tag == "" {
		fmt.Println(string(b))
		return
	}
	fmt.Printf("%s: %s\n", tag, string(b))
}

// NewPinID returns a time-ordered identifier for a new pin.
func NewPinID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func IsPinID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func Ptr[T any](v T) *T { return &v }
