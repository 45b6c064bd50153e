package drivers

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"reflect"

	"github.com/go-gota/gota/dataframe"
)

// Built-in type identifiers.
const (
	TypeCSV    = "csv"
	TypeSQLite = "sqlite"
	TypeJSON   = "json"
	TypeGob    = "gob"
	TypeFile   = "file"
)

var frameType = reflect.TypeFor[dataframe.DataFrame]()

func init() {
	// Containers produced by the json driver, so they can also be gob pinned.
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// asFrame unwraps a dataframe value or pointer.
func asFrame(obj any) (dataframe.DataFrame, bool) {
	switch v := obj.(type) {
	case dataframe.DataFrame:
		return v, true
	case *dataframe.DataFrame:
		if v == nil {
			return dataframe.DataFrame{}, false
		}
		return *v, true
	}
	return dataframe.DataFrame{}, false
}

func isFrame(obj any) bool {
	_, ok := asFrame(obj)
	return ok
}

func notFrame(obj any) bool { return !isFrame(obj) }

func csvDriver() Driver {
	return Driver{
		Type:    TypeCSV,
		Suffix:  ".csv",
		Safety:  Safe,
		Accepts: isFrame,
		Save: func(obj any, filePath string) error {
			df, _ := asFrame(obj)
			return saveCSV(df, filePath)
		},
		Load: loadCSV,
	}
}

func jsonDriver() Driver {
	return Driver{
		Type:    TypeJSON,
		Suffix:  ".json",
		Safety:  Safe,
		Accepts: notFrame,
		Save: func(obj any, filePath string) error {
			data, err := json.Marshal(obj)
			if err != nil {
				return err
			}
			return os.WriteFile(filePath, data, 0o644)
		},
		Load: func(data []byte) (any, error) {
			var v any
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// gobDriver is classified unsafe: encoding/gob is not hardened against
// adversarial input.
func gobDriver() Driver {
	return Driver{
		Type:    TypeGob,
		Suffix:  ".gob",
		Safety:  Unsafe,
		Accepts: notFrame,
		Save: func(obj any, filePath string) error {
			if err := registerGob(obj); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(&obj); err != nil {
				return err
			}
			return os.WriteFile(filePath, buf.Bytes(), 0o644)
		},
		Load: func(data []byte) (any, error) {
			var v any
			if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// registerGob registers obj's concrete type so it can travel as an interface
// value. Readers in other processes must register the same type.
func registerGob(obj any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("register %T: %v", obj, r)
		}
	}()
	gob.Register(obj)
	return nil
}

func fileDriver() Driver {
	return Driver{
		Type:   TypeFile,
		Safety: Safe,
		Accepts: func(obj any) bool {
			_, ok := obj.([]byte)
			return ok
		},
		Save: func(obj any, filePath string) error {
			return os.WriteFile(filePath, obj.([]byte), 0o644)
		},
		Load: func(data []byte) (any, error) {
			return data, nil
		},
	}
}
