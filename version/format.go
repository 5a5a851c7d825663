// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package version

import (
	"fmt"

	"github.com/juju/errors"
)

// Format renders the version according to spec:
//
//	""    => minimal form, see String
//	"1d"  => "X"
//	"2d"  => "X.Y"
//	"3d"  => "X.Y.Z"
//	"01d" => "0X"
//	"02d" => "0X.0Y"
//	"03d" => "0X.0Y.0Z"
//	"ddd" => "XYZ", the zero padded compact encoding
func (n Number) Format(spec string) (string, error) {
	switch spec {
	case "":
		return n.String(), nil
	case "1d":
		return fmt.Sprintf("%d", n.Major), nil
	case "2d":
		return fmt.Sprintf("%d.%d", n.Major, n.Minor), nil
	case "3d":
		return fmt.Sprintf("%d.%d.%d", n.Major, n.Minor, n.Patch), nil
	case "01d":
		return fmt.Sprintf("%02d", n.Major), nil
	case "02d":
		return fmt.Sprintf("%02d.%02d", n.Major, n.Minor), nil
	case "03d":
		return fmt.Sprintf("%02d.%02d.%02d", n.Major, n.Minor, n.Patch), nil
	case "ddd":
		return fmt.Sprintf("%03d", n.Int()), nil
	}
	return "", errors.NotValidf("format specifier %q", spec)
}

// MustFormat is like Format but panics on an unknown specifier.
func (n Number) MustFormat(spec string) string {
	s, err := n.Format(spec)
	if err != nil {
		panic(err)
	}
	return s
}
