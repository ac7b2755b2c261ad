// Package runtimes models containerized functions and drives their remote
// image builds through a run database backend.
package runtimes

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/runweave-labs/runweave-go/rundb"
)

// Function is a containerized runtime definition: what to run, how to build
// its image, and the last observed build state.
type Function struct {
	Kind     string   `json:"kind,omitempty"`
	Metadata Metadata `json:"metadata"`
	Spec     Spec     `json:"spec"`
	Status   Status   `json:"status,omitempty"`
}

type Metadata struct {
	Name    string            `json:"name"`
	Project string            `json:"project,omitempty"`
	Tag     string            `json:"tag,omitempty"`
	Labels  map[string]string `json:"labels,omitempty"`
}

type Spec struct {
	// Image is the built runtime image. Empty until a build completes.
	Image   string   `json:"image,omitempty"`
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	Build   Build    `json:"build,omitempty"`
}

// Build holds the image build inputs submitted to the remote builder.
type Build struct {
	Image     string   `json:"image,omitempty"`
	BaseImage string   `json:"base_image,omitempty"`
	Commands  []string `json:"commands,omitempty"`
	Secret    string   `json:"secret,omitempty"`

	// FunctionSourceCode is the base64-encoded entrypoint source baked
	// into the image.
	FunctionSourceCode string `json:"functionSourceCode,omitempty"`
}

type Status struct {
	State    string `json:"state,omitempty"`
	BuildPod string `json:"build_pod,omitempty"`
}

// ToJSON encodes the function for storage and build submission.
func (f *Function) ToJSON() ([]byte, error) {
	return json.Marshal(f)
}

var _ rundb.Encodable = (*Function)(nil)

// WithCode embeds entrypoint source into the build spec, base64-encoded.
// body wins when both a path and a body are given.
func (f *Function) WithCode(path string, body []byte) error {
	if len(body) == 0 {
		if path == "" {
			return errors.New("code path or body is required")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read code file: %w", err)
		}
		body = data
	}
	f.Spec.Build.FunctionSourceCode = base64.StdEncoding.EncodeToString(body)
	return nil
}

// ConfigureBuild merges build inputs into the spec. Commands append to any
// already configured; other fields only overwrite when non-empty.
func (f *Function) ConfigureBuild(image, baseImage string, commands []string, secret string) {
	if image != "" {
		f.Spec.Build.Image = image
	}
	if baseImage != "" {
		f.Spec.Build.BaseImage = baseImage
	}
	if len(commands) > 0 {
		f.Spec.Build.Commands = append(f.Spec.Build.Commands, commands...)
	}
	if secret != "" {
		f.Spec.Build.Secret = secret
	}
}

// DefaultImageName is the image reference assigned when a build is
// submitted without an explicit target.
func DefaultImageName(f *Function) string {
	project := f.Metadata.Project
	if project == "" {
		project = rundb.DefaultProject
	}
	return fmt.Sprintf(".runweave/func-%s-%s:latest", project, f.Metadata.Name)
}
