// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package csource

const programTemplate = `// Code generated by tracef-gen. DO NOT EDIT.

#include <fcntl.h>
#include <stdarg.h>
#include <stdbool.h>
#include <stdint.h>
#include <stdio.h>
#include <stdlib.h>
#include <sys/types.h>
#include <time.h>
#include <unistd.h>

#define [[SYMBOL]] [[SYMBOL]]_real
#include "[[TRACING_SOURCE]]"
#undef [[SYMBOL]]

[[HEADERS]]
static FILE *check_file;

void [[SYMBOL]](const char *file, unsigned int line, const char *func,
		unsigned int level, const char *fmt, ...)
{
	va_list args;

	(void)file;
	(void)line;
	(void)func;
	(void)level;
	va_start(args, fmt);
	vfprintf(check_file, fmt, args);
	va_end(args);
	fputc('\n', check_file);
}

[[GENERATORS]]
int main(void)
{
	int dump_fd;
[[SEED]]
	[[ENABLE_VAR]] = true;
	check_file = fopen("[[CHECK_FILE]]", "w");
	if (check_file == NULL) {
		perror("[[CHECK_FILE]]");
		return 1;
	}
	dump_fd = open("[[DUMP_FILE]]", O_WRONLY | O_CREAT | O_TRUNC, 0644);
	if (dump_fd < 0) {
		perror("[[DUMP_FILE]]");
		return 1;
	}
[[CALLS]]	[[DUMP_FUNC]](dump_fd);
	fclose(check_file);
	close(dump_fd);
	return 0;
}
`
