package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedContentType = errors.New("arriwire: unsupported content type")

// ContentType of a message body. The zero value means the header is absent.
type ContentType uint8

const (
	ContentTypeUnset ContentType = iota
	ContentTypeJSON
)

var contentTypeSerial = [...]string{
	ContentTypeUnset: "",
	ContentTypeJSON:  "application/json",
}

// SerialValue returns the MIME string written to the content-type header.
func (ct ContentType) SerialValue() string {
	if int(ct) < len(contentTypeSerial) {
		return contentTypeSerial[ct]
	}
	return ""
}

func (ct ContentType) String() string {
	if ct == ContentTypeUnset {
		return "unset"
	}
	return ct.SerialValue()
}

// ParseContentType looks s up among the known MIME strings. Matching is exact.
func ParseContentType(s string) (ContentType, error) {
	for ct := ContentTypeJSON; int(ct) < len(contentTypeSerial); ct++ {
		if contentTypeSerial[ct] == s {
			return ct, nil
		}
	}
	return ContentTypeUnset, fmt.Errorf("%w: %q", ErrUnsupportedContentType, s)
}

// HTTPMethod records the verb an invocation arrived with.
type HTTPMethod uint8

const (
	HTTPMethodUnset HTTPMethod = iota
	HTTPMethodGet
	HTTPMethodPost
	HTTPMethodPut
	HTTPMethodPatch
	HTTPMethodDelete
)

var httpMethodNames = [...]string{
	HTTPMethodUnset:  "",
	HTTPMethodGet:    "get",
	HTTPMethodPost:   "post",
	HTTPMethodPut:    "put",
	HTTPMethodPatch:  "patch",
	HTTPMethodDelete: "delete",
}

func (m HTTPMethod) String() string {
	if int(m) < len(httpMethodNames) {
		return httpMethodNames[m]
	}
	return ""
}

// ParseHTTPMethod accepts the five standard verbs in any letter case.
func ParseHTTPMethod(s string) (HTTPMethod, error) {
	s = strings.ToLower(s)
	for m := HTTPMethodGet; int(m) < len(httpMethodNames); m++ {
		if httpMethodNames[m] == s {
			return m, nil
		}
	}
	return HTTPMethodUnset, fmt.Errorf("arriwire: unsupported http method %q", s)
}
