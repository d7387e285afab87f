// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tracegen maps C types of trace call arguments to generator functions
// that synthesize deterministic argument values in the generated test program.
//
// Every generator takes the per-run seed explicitly:
//
//	static int generate_int(const struct tracef_seed *seed)
//
// so all generators of one run produce values derived from the same seed,
// while different runs use different seeds.
package tracegen

import (
	"fmt"
	"regexp"
	"strings"
)

// Key is a canonical C type signature, e.g. "const_char_ptr" for "const char *".
type Key int

const (
	Int Key = iota
	UnsignedInt
	Long
	UnsignedLong
	Int32
	Uint32
	Int64
	Uint64
	Size
	SSize
	Pid
	VoidPtr
	ConstVoidPtr
	CharPtr
	ConstCharPtr
	RaftID
	RaftIndex
	RaftTerm
	RaftTime
	numKeys
)

// Generator describes how to synthesize a value of one type category.
type Generator struct {
	// Name is the canonical key spelling, the C function is named "generate_" + Name.
	Name string
	// CType is the C return type of the generator.
	CType string
	// Body is the C expression returned by the generator, it may refer to seed.
	Body string
}

const (
	// SeedStruct is the C type that holds per-run seed values.
	SeedStruct = "struct tracef_seed"
	// SeedArg is the name of the seed pointer in main.
	SeedArg = "seed"
	// StringPrefix is the prefix of synthesized strings.
	StringPrefix = "str_"
	// StringModulo bounds the numeric part of synthesized strings,
	// so that "str_" + digits fits into the 15-byte string slot of crash trace records.
	StringModulo = 1000000000
)

var Generators = [numKeys]Generator{
	Int:          {"int", "int", "(int)seed->value"},
	UnsignedInt:  {"unsigned_int", "unsigned int", "(unsigned int)seed->value"},
	Long:         {"long", "long", "(long)seed->value"},
	UnsignedLong: {"unsigned_long", "unsigned long", "(unsigned long)seed->value"},
	Int32:        {"int32_t", "int32_t", "(int32_t)seed->value"},
	Uint32:       {"uint32_t", "uint32_t", "(uint32_t)seed->value"},
	Int64:        {"int64_t", "int64_t", "(int64_t)seed->value"},
	Uint64:       {"uint64_t", "uint64_t", "(uint64_t)seed->value"},
	Size:         {"size_t", "size_t", "(size_t)seed->value"},
	SSize:        {"ssize_t", "ssize_t", "(ssize_t)seed->value"},
	Pid:          {"pid_t", "pid_t", "(pid_t)(seed->value % 32768)"},
	VoidPtr:      {"void_ptr", "void *", "(void *)(uintptr_t)seed->value"},
	ConstVoidPtr: {"const_void_ptr", "const void *", "(const void *)(uintptr_t)seed->value"},
	CharPtr:      {"char_ptr", "char *", "(char *)seed->str"},
	ConstCharPtr: {"const_char_ptr", "const char *", "seed->str"},
	RaftID:       {"raft_id", "raft_id", "(raft_id)seed->value"},
	RaftIndex:    {"raft_index", "raft_index", "(raft_index)seed->value"},
	RaftTerm:     {"raft_term", "raft_term", "(raft_term)seed->value"},
	RaftTime:     {"raft_time", "raft_time", "(raft_time)seed->value"},
}

var keyByName = func() map[string]Key {
	m := make(map[string]Key)
	for k := Key(0); k < numKeys; k++ {
		g := Generators[k]
		if g.Name == "" || g.CType == "" || g.Body == "" {
			panic(fmt.Sprintf("tracegen: key %d has no generator", k))
		}
		if prev, ok := m[g.Name]; ok {
			panic(fmt.Sprintf("tracegen: keys %d and %d are both named %q", prev, k, g.Name))
		}
		m[g.Name] = k
	}
	return m
}()

// Keys returns all keys in declaration order.
func Keys() []Key {
	keys := make([]Key, numKeys)
	for k := range keys {
		keys[k] = Key(k)
	}
	return keys
}

func (k Key) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return Generators[k].Name
}

// Func returns name of the C generator function for the key.
func (k Key) Func() string {
	return "generate_" + k.String()
}

// Call returns C expression that invokes the generator.
func (k Key) Call() string {
	return k.Func() + "(" + SeedArg + ")"
}

var (
	arrayDim   = regexp.MustCompile(`\s*\[[^\]]*\]`)
	qualifiers = map[string]bool{"const": true, "volatile": true, "restrict": true}
)

// Normalize converts a clang type spelling into the canonical key spelling.
// Pointers become "ptr" words, arrays decay to pointers, qualifiers that apply to
// the pointer itself are dropped ("char *const" is the same as "char *"), and words are joined with "_":
//
//	"const char *"  -> "const_char_ptr"
//	"char[16]"      -> "char_ptr"
//	"unsigned long" -> "unsigned_long"
func Normalize(typ string) string {
	typ = strings.TrimSpace(typ)
	typ = arrayDim.ReplaceAllString(typ, " *")
	typ = strings.ReplaceAll(typ, "*", " ptr ")
	words := strings.Fields(typ)
	// Drop qualifiers that follow the last pointer.
	for len(words) > 1 && qualifiers[words[len(words)-1]] {
		if !containsPtr(words) {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, "_")
}

func containsPtr(words []string) bool {
	for _, w := range words {
		if w == "ptr" {
			return true
		}
	}
	return false
}

// Lookup returns the key for a clang type spelling.
func Lookup(typ string) (Key, error) {
	name := Normalize(typ)
	if k, ok := keyByName[name]; ok {
		return k, nil
	}
	return 0, &UnknownTypeError{Type: typ, Key: name}
}

// UnknownTypeError is returned for types without a generator.
type UnknownTypeError struct {
	Type string
	Key  string
}

func (err *UnknownTypeError) Error() string {
	return fmt.Sprintf("no generator for type %q (key %v)", err.Type, err.Key)
}

// Valid returns true if k is one of the enumerated keys.
func (k Key) Valid() bool {
	return k >= 0 && k < numKeys
}
