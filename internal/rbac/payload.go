package rbac

import "encoding/json"

// looseString accepts any JSON value; anything but a string decodes as "".
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	str, _ := v.(string)
	*s = looseString(str)
	return nil
}

// idList accepts any JSON value. Arrays keep their string entries; any
// other value decodes as an empty list.
type idList []string

func (l *idList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	items, _ := v.([]any)
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := item.(string); ok {
			ids = append(ids, id)
		}
	}
	*l = ids
	return nil
}

type permissionRequest struct {
	Name        looseString `json:"name"`
	Description looseString `json:"description"`
}

type roleRequest struct {
	Name looseString `json:"name"`
}

type rolePermissionsRequest struct {
	PermissionIDs idList `json:"permissionIds"`
}
