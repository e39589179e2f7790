//go:build !unix && !windows

package platform

import "errors"

var errUnsupportedPlatform = errors.New("platform: executable memory management is unsupported on this GOOS")

func MmapCodeSegment(size int) ([]byte, error)            { return nil, errUnsupportedPlatform }
func MunmapCodeSegment(code []byte) error                 { return errUnsupportedPlatform }
func RemapCodeSegment(old []byte, newSize int) ([]byte, error) { return nil, errUnsupportedPlatform }
func MprotectRX(code []byte) error                        { return errUnsupportedPlatform }
