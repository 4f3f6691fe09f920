package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDockerfile(t *testing.T) {
	t.Run("multi-stage build", func(t *testing.T) {
		content := `# build stage
FROM --platform=$BUILDPLATFORM golang:1.22-alpine AS build
RUN go build -o /app .

FROM gcr.io/distroless/static:nonroot
COPY --from=build /app /app
EXPOSE 8080 9090/tcp
`
		df := ParseDockerfile("Dockerfile", content)
		require.NotNil(t, df)
		assert.Equal(t, []DockerImage{
			{Name: "golang", Tag: "1.22-alpine", Stage: "build"},
			{Name: "static", Tag: "nonroot"},
		}, df.BaseImages)
		assert.Equal(t, []int{8080, 9090}, df.ExposedPorts)
		assert.True(t, df.MultiStage)
	})

	t.Run("stage reference is not a base image", func(t *testing.T) {
		df := ParseDockerfile("Dockerfile", "FROM node:20 AS base\nFROM base AS test\n")
		require.NotNil(t, df)
		assert.Equal(t, []DockerImage{{Name: "node", Tag: "20", Stage: "base"}}, df.BaseImages)
		assert.True(t, df.MultiStage)
	})

	t.Run("registry with port and digest", func(t *testing.T) {
		df := ParseDockerfile("Dockerfile", "from localhost:5000/team/python:3.11@sha256:abc\n")
		require.NotNil(t, df)
		assert.Equal(t, []DockerImage{{Name: "python", Tag: "3.11"}}, df.BaseImages)
		assert.False(t, df.MultiStage)
	})

	t.Run("nothing useful", func(t *testing.T) {
		assert.Nil(t, ParseDockerfile("Dockerfile", "# empty\nRUN echo hi\n"))
	})
}

func TestDockerImage_Version(t *testing.T) {
	tests := map[string]string{
		"3.12-slim":     "3.12",
		"20":            "20",
		"1.22.":         "1.22",
		"latest":        "",
		"":              "",
		"21-jre-alpine": "21",
	}
	for tag, expected := range tests {
		assert.Equal(t, expected, DockerImage{Tag: tag}.Version(), tag)
	}
}
