package helper

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidateStructIsPopulated will check if any mandatory fields in cfg are missing.
// It uses struct tags to determine which fields are mandatory and the error text to fetch.
// The error text returned is just a list of the struct tags with key "errorTxt".
func ValidateStructIsPopulated(cfg interface{}) (err error) {
	errs := make([]string, 0)
	GetStructErrorTxt4UnsetFields(cfg, &errs)
	if len(errs) > 0 {
		err = fmt.Errorf("please supply values for %v", strings.Join(errs, ", "))
	}
	return
}

// GetStructErrorTxt4UnsetFields reflects over struct i and appends the errorTxt tag of every exported field
// that is tagged mandatory:"yes" and still holds its zero value.
// Nested structs and struct values held in maps are visited too.
func GetStructErrorTxt4UnsetFields(i interface{}, errTags *[]string) {
	val := reflect.ValueOf(i)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}
	typ := val.Type()
	for idx := 0; idx < val.NumField(); idx++ { // for each field in the struct...
		field := typ.Field(idx)
		if field.PkgPath != "" { // if the field is not exported...
			continue
		}
		f := val.Field(idx)
		switch f.Kind() {
		case reflect.Struct: // descend into nested config.
			GetStructErrorTxt4UnsetFields(f.Interface(), errTags)
		case reflect.Map:
			for _, k := range f.MapKeys() {
				mapVal := f.MapIndex(k)
				if mapVal.Kind() == reflect.Struct {
					GetStructErrorTxt4UnsetFields(mapVal.Interface(), errTags)
				}
			}
		case reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan, reflect.Ptr:
		default:
			if f.IsZero() && field.Tag.Get("mandatory") == "yes" { // if the field is mandatory and unset...
				*errTags = append(*errTags, field.Tag.Get("errorTxt"))
			}
		}
	}
}
