// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Struct metadata extraction for binding a Value tree onto a host Go
// struct type: parses `yaml:"name,omitempty,flow,inline"` tags and caches
// the result per type for repeated use.

package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

type structInfo struct {
	FieldsMap  map[string]fieldInfo
	FieldsList []fieldInfo

	// InlineMap is the field index of an ,inline map, or -1 if none.
	InlineMap int

	// InlineUnmarshalers holds index paths to inlined fields whose type
	// implements Unmarshaler, so field binding can hand them the whole
	// mapping node instead of walking into their own fields.
	InlineUnmarshalers [][]int
}

type fieldInfo struct {
	Key       string
	Num       int
	OmitEmpty bool
	Flow      bool
	Id        int
	Inline    []int
}

var (
	structMap     = make(map[reflect.Type]*structInfo)
	fieldMapMutex sync.RWMutex

	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
)

// Unmarshaler is implemented by host types that want to take over their
// own decoding from a Value node.
type Unmarshaler interface {
	UnmarshalYAML(*Value) error
}

func getStructInfo(st reflect.Type) (*structInfo, error) {
	fieldMapMutex.RLock()
	sinfo, found := structMap[st]
	fieldMapMutex.RUnlock()
	if found {
		return sinfo, nil
	}

	n := st.NumField()
	fieldsMap := make(map[string]fieldInfo)
	fieldsList := make([]fieldInfo, 0, n)
	inlineMap := -1
	var inlineUnmarshalers [][]int

	for i := 0; i != n; i++ {
		field := st.Field(i)
		if field.PkgPath != "" && !field.Anonymous {
			continue
		}

		info := fieldInfo{Num: i}
		tag := field.Tag.Get("yaml")
		if tag == "-" {
			continue
		}

		inline := false
		parts := strings.Split(tag, ",")
		if len(parts) > 1 {
			for _, flag := range parts[1:] {
				switch flag {
				case "omitempty":
					info.OmitEmpty = true
				case "flow":
					info.Flow = true
				case "inline":
					inline = true
				default:
					return nil, fmt.Errorf("unsupported flag %q in tag %q of type %s", flag, tag, st)
				}
			}
			tag = parts[0]
		}

		if inline {
			switch field.Type.Kind() {
			case reflect.Map:
				if inlineMap >= 0 {
					return nil, errors.New("multiple ,inline maps in struct " + st.String())
				}
				if field.Type.Key() != reflect.TypeOf("") {
					return nil, errors.New("option ,inline needs a map with string keys in struct " + st.String())
				}
				inlineMap = info.Num
			case reflect.Struct, reflect.Pointer:
				ftype := field.Type
				for ftype.Kind() == reflect.Pointer {
					ftype = ftype.Elem()
				}
				if ftype.Kind() != reflect.Struct {
					return nil, errors.New("option ,inline may only be used on a struct or map field")
				}
				if reflect.PointerTo(ftype).Implements(unmarshalerType) {
					inlineUnmarshalers = append(inlineUnmarshalers, []int{i})
				} else {
					nested, err := getStructInfo(ftype)
					if err != nil {
						return nil, err
					}
					for _, idx := range nested.InlineUnmarshalers {
						inlineUnmarshalers = append(inlineUnmarshalers, append([]int{i}, idx...))
					}
					for _, finfo := range nested.FieldsList {
						if _, found := fieldsMap[finfo.Key]; found {
							return nil, errors.New("duplicated key '" + finfo.Key + "' in struct " + st.String())
						}
						if finfo.Inline == nil {
							finfo.Inline = []int{i, finfo.Num}
						} else {
							finfo.Inline = append([]int{i}, finfo.Inline...)
						}
						finfo.Id = len(fieldsList)
						fieldsMap[finfo.Key] = finfo
						fieldsList = append(fieldsList, finfo)
					}
				}
			default:
				return nil, errors.New("option ,inline may only be used on a struct or map field")
			}
			continue
		}

		if tag != "" {
			info.Key = tag
		} else {
			info.Key = strings.ToLower(field.Name)
		}

		if _, found := fieldsMap[info.Key]; found {
			return nil, errors.New("duplicated key '" + info.Key + "' in struct " + st.String())
		}

		info.Id = len(fieldsList)
		fieldsList = append(fieldsList, info)
		fieldsMap[info.Key] = info
	}

	sinfo = &structInfo{
		FieldsMap:          fieldsMap,
		FieldsList:         fieldsList,
		InlineMap:          inlineMap,
		InlineUnmarshalers: inlineUnmarshalers,
	}

	fieldMapMutex.Lock()
	structMap[st] = sinfo
	fieldMapMutex.Unlock()
	return sinfo, nil
}
