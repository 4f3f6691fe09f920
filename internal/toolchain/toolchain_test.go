package toolchain

import (
	"testing"

	"github.com/petrarca/auto-ci/internal/provider"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		expected Versions
	}{
		{
			name:     "nothing pinned",
			files:    map[string]string{"README.md": "# x"},
			expected: Defaults(),
		},
		{
			name:     "go directive",
			files:    map[string]string{"go.mod": "module x\n\ngo 1.22\n"},
			expected: Versions{Python: DefaultPython, Node: DefaultNode, Go: "1.22", Java: DefaultJava},
		},
		{
			name:     "toolchain directive wins",
			files:    map[string]string{"go.mod": "module x\n\ngo 1.21\n\ntoolchain go1.22.4\n", ".go-version": "1.20"},
			expected: Versions{Python: DefaultPython, Node: DefaultNode, Go: "1.22.4", Java: DefaultJava},
		},
		{
			name:     "go-version file without go.mod",
			files:    map[string]string{".go-version": "1.20.5\n"},
			expected: Versions{Python: DefaultPython, Node: DefaultNode, Go: "1.20.5", Java: DefaultJava},
		},
		{
			name:     "python-version over runtime.txt",
			files:    map[string]string{".python-version": "3.12.1\n", "runtime.txt": "python-3.9.0"},
			expected: Versions{Python: "3.12.1", Node: DefaultNode, Go: DefaultGo, Java: DefaultJava},
		},
		{
			name:     "runtime.txt",
			files:    map[string]string{"runtime.txt": "python-3.10.4\n"},
			expected: Versions{Python: "3.10.4", Node: DefaultNode, Go: DefaultGo, Java: DefaultJava},
		},
		{
			name:     "nvmrc with v prefix",
			files:    map[string]string{".nvmrc": "v20.10.0\n", ".node-version": "16"},
			expected: Versions{Python: DefaultPython, Node: "20.10.0", Go: DefaultGo, Java: DefaultJava},
		},
		{
			name:     "whitespace-only file keeps default",
			files:    map[string]string{".nvmrc": "  \n  ", ".java-version": "17\n"},
			expected: Versions{Python: DefaultPython, Node: DefaultNode, Go: DefaultGo, Java: "17"},
		},
		{
			name:     "dockerfile base images",
			files:    map[string]string{"Dockerfile": "FROM node:20-alpine AS web\nFROM python:3.12-slim\nFROM eclipse-temurin:21-jre\n"},
			expected: Versions{Python: "3.12", Node: "20", Go: DefaultGo, Java: "21"},
		},
		{
			name:     "version files win over dockerfile",
			files:    map[string]string{"Dockerfile": "FROM golang:1.23 AS build\nFROM python:latest\n", "go.mod": "module x\n\ngo 1.22\n"},
			expected: Versions{Python: DefaultPython, Node: DefaultNode, Go: "1.22", Java: DefaultJava},
		},
		{
			name:     "node alias keeps default",
			files:    map[string]string{".nvmrc": "lts/hydrogen\n"},
			expected: Defaults(),
		},
		{
			name:     "system python keeps default",
			files:    map[string]string{".python-version": "system\n", ".java-version": "temurin-17\n"},
			expected: Defaults(),
		},
		{
			name:     "alias falls through to dockerfile",
			files:    map[string]string{".nvmrc": "lts/*\n", "Dockerfile": "FROM node:20-alpine\n"},
			expected: Versions{Python: DefaultPython, Node: "20", Go: DefaultGo, Java: DefaultJava},
		},
		{
			name:     "broken go.mod",
			files:    map[string]string{"go.mod": "module\nrequire ((("},
			expected: Defaults(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := provider.NewFakeProvider()
			for name, content := range tt.files {
				p.AddFile(name, content)
			}
			assert.Equal(t, tt.expected, Resolve(p, nil))
		})
	}
}

func TestVersions_WithDefaults(t *testing.T) {
	assert.Equal(t, Defaults(), Versions{}.WithDefaults())
	assert.Equal(t,
		Versions{Python: "3.12", Node: DefaultNode, Go: "1.23", Java: DefaultJava},
		Versions{Python: "3.12", Go: "1.23"}.WithDefaults())
}

func TestNumeric(t *testing.T) {
	assert.Equal(t, "3.12.1", numeric("3.12.1"))
	assert.Equal(t, "20", numeric("20"))
	assert.Empty(t, numeric("lts/hydrogen"))
	assert.Empty(t, numeric("pypy3.10"))
	assert.Empty(t, numeric("node"))
	assert.Empty(t, numeric(""))
}
