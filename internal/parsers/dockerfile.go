package parsers

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	dockerfileFromRegex   = regexp.MustCompile(`(?i)^FROM\s+(?:--platform=\S+\s+)?(\S+)(?:\s+AS\s+(\S+))?`)
	dockerfileExposeRegex = regexp.MustCompile(`(?i)^EXPOSE\s+(.+)`)
	dockerfilePortRegex   = regexp.MustCompile(`\d+`)
)

// DockerImage is one FROM line of a Dockerfile
type DockerImage struct {
	Name  string `json:"name" yaml:"name"` // without tag or digest, e.g. "python"
	Tag   string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty"`
}

// Dockerfile is what the audit and the toolchain resolver need from a Dockerfile
type Dockerfile struct {
	File         string        `json:"file" yaml:"file"`
	BaseImages   []DockerImage `json:"base_images" yaml:"base_images"`
	ExposedPorts []int         `json:"exposed_ports,omitempty" yaml:"exposed_ports,omitempty"`
	MultiStage   bool          `json:"multi_stage" yaml:"multi_stage"`
}

// ParseDockerfile extracts base images and exposed ports. It returns nil
// when the content has neither.
func ParseDockerfile(file, content string) *Dockerfile {
	df := &Dockerfile{File: file, BaseImages: []DockerImage{}}
	stages := make(map[string]bool)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if m := dockerfileFromRegex.FindStringSubmatch(line); m != nil {
			// FROM <earlier stage> is not a base image
			if stages[strings.ToLower(m[1])] {
				df.MultiStage = true
				continue
			}
			image := splitImage(m[1])
			if m[2] != "" {
				image.Stage = m[2]
				stages[strings.ToLower(m[2])] = true
			}
			df.BaseImages = append(df.BaseImages, image)
			continue
		}

		if m := dockerfileExposeRegex.FindStringSubmatch(line); m != nil {
			for _, port := range dockerfilePortRegex.FindAllString(m[1], -1) {
				if n, err := strconv.Atoi(port); err == nil {
					df.ExposedPorts = append(df.ExposedPorts, n)
				}
			}
		}
	}

	if len(df.BaseImages) > 1 {
		df.MultiStage = true
	}
	if len(df.BaseImages) == 0 && len(df.ExposedPorts) == 0 {
		return nil
	}
	return df
}

// splitImage separates registry/name:tag@digest into name and tag.
// The registry and namespace are dropped: "docker.io/library/node:20" -> node, 20.
func splitImage(ref string) DockerImage {
	if i := strings.Index(ref, "@"); i >= 0 {
		ref = ref[:i]
	}
	var tag string
	// A colon after the last slash separates the tag; earlier ones belong to a registry port
	if i := strings.LastIndex(ref, ":"); i > strings.LastIndex(ref, "/") {
		ref, tag = ref[:i], ref[i+1:]
	}
	return DockerImage{Name: ref[strings.LastIndex(ref, "/")+1:], Tag: tag}
}

// Version returns the leading numeric part of the tag: "3.12-slim" -> "3.12".
// Tags such as "latest" or "alpine" yield "".
func (i DockerImage) Version() string {
	end := 0
	for end < len(i.Tag) && (i.Tag[end] >= '0' && i.Tag[end] <= '9' || i.Tag[end] == '.') {
		end++
	}
	return strings.TrimRight(i.Tag[:end], ".")
}
