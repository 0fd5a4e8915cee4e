package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/manav03panchal/mindstore/internal/model"
)

// Key layout:
//
//	r:<store>:<pk>                         record
//	i:<store>:<index>:<value>\x00<pk>      index entry (empty value)
//	m:schema                               persisted Schema
//	m:seq:<store>                          last auto-increment id
const (
	recordSpace = "r:"
	indexSpace  = "i:"
	schemaKey   = "m:schema"
	seqSpace    = "m:seq:"
	indexSep    = "\x00"
)

func recordPrefix(store string) string {
	return recordSpace + store + ":"
}

func recordKey(store, pk string) string {
	return recordPrefix(store) + pk
}

func indexPrefix(store, index string) string {
	return indexSpace + store + ":" + index + ":"
}

func indexValuePrefix(store, index, value string) string {
	return indexPrefix(store, index) + value + indexSep
}

func indexKey(store, index, value, pk string) string {
	return indexValuePrefix(store, index, value) + pk
}

// pkFromIndexKey extracts the primary key of an index entry. Encoded values
// never contain indexSep, so the first separator ends the value.
func pkFromIndexKey(key string) string {
	if i := strings.Index(key, indexSep); i >= 0 {
		return key[i+len(indexSep):]
	}
	return ""
}

func seqKey(store string) string {
	return seqSpace + store
}

// autoKey renders an auto-increment id as a sortable primary key.
func autoKey(id int64) string {
	return model.QueueKey(id)
}

// indexValues extracts the encoded index values of doc for def. A missing or
// null field yields no entries. Multi-entry indexes over arrays yield one
// entry per distinct element.
func indexValues(doc map[string]any, def IndexDef) []string {
	v, ok := doc[def.KeyPath]
	if !ok || v == nil {
		return nil
	}
	if arr, isArr := v.([]any); isArr && def.MultiEntry {
		seen := make(map[string]bool, len(arr))
		out := make([]string, 0, len(arr))
		for _, el := range arr {
			enc, ok := encodeIndexValue(el, def.Kind)
			if ok && !seen[enc] {
				seen[enc] = true
				out = append(out, enc)
			}
		}
		return out
	}
	enc, ok := encodeIndexValue(v, def.Kind)
	if !ok {
		return nil
	}
	return []string{enc}
}

// Encoded index values carry a one-byte type tag so values of different
// types never collide.
const (
	tagBool   = "b"
	tagNumber = "n"
	tagString = "s"
	tagTime   = "t"
)

// indexEscaper removes indexSep from string values while keeping their
// byte order.
var indexEscaper = strings.NewReplacer("\x01", "\x01\x02", "\x00", "\x01\x01")

// encodeIndexValue renders a JSON scalar so that lexical order matches
// natural order for timestamps and non-negative integers. Strings are kept
// verbatim except on time indexes, where RFC 3339 values are rewritten to
// the canonical UTC layout, and on fold indexes, where they are lowercased.
func encodeIndexValue(v any, kind IndexKind) (string, bool) {
	switch x := v.(type) {
	case string:
		switch kind {
		case IndexKindTime:
			if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
				return tagTime + model.FormatTimestamp(t), true
			}
		case IndexKindFold:
			x = strings.ToLower(x)
		}
		return tagString + indexEscaper.Replace(x), true
	case bool:
		if x {
			return tagBool + "1", true
		}
		return tagBool + "0", true
	case float64:
		if x >= 0 && x == math.Trunc(x) && x < 1e19 {
			return tagNumber + fmt.Sprintf("%020d", uint64(x)), true
		}
		return tagNumber + strconv.FormatFloat(x, 'g', -1, 64), true
	case json.Number:
		return encodeIndexValue(mustFloat(x), kind)
	case time.Time:
		return tagTime + model.FormatTimestamp(x), true
	case int:
		return encodeIndexValue(float64(x), kind)
	case int64:
		return encodeIndexValue(float64(x), kind)
	default:
		return "", false
	}
}

func mustFloat(n json.Number) float64 {
	f, _ := n.Float64()
	return f
}
