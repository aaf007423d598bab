package utils

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Count is an integer quantity that accepts either a JSON number or a
// numeric string ("0"), which is how the inspection client sends
// garment quantities. It keeps whatever value it was given, including
// negatives; range checks belong to the validators.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*c = 0
			return nil
		}
		v, err := strconv.Atoi(str)
		if err != nil {
			return err
		}
		*c = Count(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Count(v)
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(c))
}
