// Copyright 2021-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pretty renders structures as indented, human readable text.
//
// Fields are titled from their Go names unless a `pretty:"Title"` tag says
// otherwise; `pretty:"-"` hides a field.
package pretty

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/camelcase"
)

// Formatter is implemented by values that render themselves, possibly over
// several lines.
type Formatter interface {
	PrettyString(depth uint, withHeader bool) string
}

// maxBytes is how much of a byte slice is shown before it is cut.
const maxBytes = 32

func indent(depth uint) string {
	return strings.Repeat("  ", int(depth))
}

// Header returns the title line of an object at depth. Top level titles are
// followed by a line break.
func Header(depth uint, description string, obj interface{}) string {
	if description == "" {
		description = fmt.Sprintf("%T", obj)
	}
	var title string
	switch depth {
	case 0:
		title = "----" + description + "----\n"
	case 1:
		title = "--" + description + "--"
	default:
		title = description + ":"
	}
	return indent(depth) + title
}

// SubValue returns one "name: value" line. An empty valueDescription means
// value is formatted.
func SubValue(depth uint, fieldName, valueDescription string, value interface{}) string {
	if valueDescription == "" {
		valueDescription = Value(depth, value)
	}
	return Header(depth, fieldName, nil) + " " + valueDescription
}

// FieldName turns a Go identifier into words: "SPIAddr" becomes "SPI Addr".
func FieldName(name string) string {
	return strings.Join(camelcase.Split(name), " ")
}

func fieldTitle(f reflect.StructField) (string, bool) {
	switch tag := f.Tag.Get("pretty"); tag {
	case "-":
		return "", false
	case "":
		return FieldName(f.Name), true
	default:
		return tag, true
	}
}

// Struct renders every exported field of obj, a struct or pointer to one.
func Struct(depth uint, withHeader bool, description string, obj interface{}) string {
	var lines []string
	if withHeader {
		lines = append(lines, Header(depth, description, obj))
	}
	v := reflect.Indirect(reflect.ValueOf(obj))
	if v.Kind() != reflect.Struct {
		lines = append(lines, SubValue(depth+1, "Value", "", obj))
		return strings.Join(lines, "\n")
	}
	for i, t := 0, v.Type(); i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		title, ok := fieldTitle(f)
		if !ok {
			continue
		}
		lines = append(lines, SubValue(depth+1, title, "", v.Field(i).Interface()))
	}
	return strings.Join(lines, "\n")
}

// Value formats a single value the way SubValue shows it.
func Value(depth uint, value interface{}) string {
	v := reflect.ValueOf(value)
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return "is not set (nil)"
	}
	switch value := value.(type) {
	case Formatter:
		s := value.PrettyString(depth, false)
		if strings.Contains(s, "\n") {
			return "\n" + s
		}
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return value.String()
	}

	v = reflect.Indirect(v)
	switch v.Kind() {
	case reflect.Bool:
		return fmt.Sprint(v.Bool())
	case reflect.String:
		return fmt.Sprintf("%q", v.String())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return unsigned(v.Uint(), int(v.Type().Size()))
	case reflect.Array:
		return fmt.Sprintf("0x%X", v.Interface())
	case reflect.Slice:
		return slice(v)
	}
	return fmt.Sprintf("%#+v (%T)", value, value)
}

// unsigned shows i as hex padded to its width, adding the decimal value once
// it stops being obvious and the size in bytes once it is large.
func unsigned(i uint64, width int) string {
	hex := fmt.Sprintf("0x%0*X", width*2, i)
	switch {
	case i < 10:
		return hex
	case i < 1<<16:
		return fmt.Sprintf("%s (%d)", hex, i)
	}
	return fmt.Sprintf("%s (%d: %s)", hex, i, humanize.IBytes(i))
}

func slice(v reflect.Value) string {
	n := v.Len()
	switch {
	case n == 0:
		return "empty (len: 0)"
	case v.Type().Elem().Kind() == reflect.Uint8 && n > maxBytes:
		return fmt.Sprintf("0x%X... (len: %d)", v.Slice(0, maxBytes).Interface(), n)
	}
	return fmt.Sprintf("0x%X (len: %d)", v.Interface(), n)
}
