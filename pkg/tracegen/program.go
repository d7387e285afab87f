// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tracegen

import (
	"bytes"
	"fmt"
	"strings"
)

// Definitions returns C source that defines the seed struct and all generator functions.
func Definitions() []byte {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "%v {\n\tuint64_t value;\n\tchar str[16];\n};\n", SeedStruct)
	for _, k := range Keys() {
		g := Generators[k]
		fmt.Fprintf(buf, "\nstatic %v(const %v *seed)\n{\n\treturn %v;\n}\n",
			declarator(g.CType, k.Func()), SeedStruct, g.Body)
	}
	return buf.Bytes()
}

// declarator joins a C type and a name, pointer types get the star attached to the name.
func declarator(ctype, name string) string {
	if strings.HasSuffix(ctype, "*") {
		return ctype + name
	}
	return ctype + " " + name
}

// SeedInit returns C statements that initialize the per-run seed named SeedArg.
// The seed is derived once per process from a time-seeded random source.
func SeedInit() []byte {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "\t%v seed_storage;\n", SeedStruct)
	fmt.Fprintf(buf, "\tconst %v *%v = &seed_storage;\n", SeedStruct, SeedArg)
	fmt.Fprintf(buf, "\tsrand(time(NULL));\n")
	fmt.Fprintf(buf, "\tseed_storage.value = ((uint64_t)rand()) << 32 | (uint64_t)rand();\n")
	fmt.Fprintf(buf, "\tsnprintf(seed_storage.str, sizeof(seed_storage.str), \"%v%%u\",\n", StringPrefix)
	fmt.Fprintf(buf, "\t\t (unsigned)(seed_storage.value %% %vu));\n", StringModulo)
	return buf.Bytes()
}
