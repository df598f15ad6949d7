package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

// tree is a generic mutable JSON document.
type tree = map[string]any

// decodeTree parses data into a generic tree. Numbers are kept as json.Number
// so values the persistence layer does not own survive a round trip unchanged.
func decodeTree(data []byte) (tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var t tree
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: document is not an object", domain.ErrSerialization)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", domain.ErrSerialization)
	}
	return t, nil
}

// encodeTree serialises t.
func encodeTree(t tree) ([]byte, error) {
	out, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	return out, nil
}

// normalizeEnvelope wraps a bare configuration tree written by older versions
// in the current snapshot envelope.
func normalizeEnvelope(t tree) tree {
	if _, ok := t[domain.SnapshotStateKey]; ok {
		return t
	}
	return tree{
		"version":               json.Number(fmt.Sprint(domain.SnapshotVersion)),
		domain.SnapshotStateKey: t,
	}
}

// lookup returns the value at path and whether it exists.
func lookup(t tree, path domain.FieldPath) (any, bool) {
	var cur any = t
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// assign sets the value at path. Missing intermediate objects are created;
// it reports false if an intermediate value is not an object.
func assign(t tree, path domain.FieldPath, value any) bool {
	if len(path) == 0 {
		return false
	}
	cur := t
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg]
		if !ok || next == nil {
			m := make(map[string]any)
			cur[seg] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		cur = m
	}
	cur[path[len(path)-1]] = value
	return true
}

// assetAt classifies the value at path. Absent and null values are empty.
func assetAt(t tree, path domain.FieldPath) (domain.Asset, bool, error) {
	v, ok := lookup(t, path)
	if !ok || v == nil {
		return domain.EmptyAsset(), ok, nil
	}
	s, isString := v.(string)
	if !isString {
		return domain.Asset{}, true, fmt.Errorf("%w: %s must be a string, got %T", domain.ErrInvalidInput, path, v)
	}
	a, err := domain.ParseAsset(s)
	if err != nil {
		return domain.Asset{}, true, err
	}
	return a, true, nil
}
