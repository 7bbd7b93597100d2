package platform

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrToolNotConfigured is reported for a tool whose command is empty.
var ErrToolNotConfigured = errors.New("command not configured")

// Tool is an external program the pipeline shells out to.
type Tool struct {
	Name     string
	Command  string
	Purpose  string
	Optional bool
}

// ToolStatus is the lookup result for a Tool. Err is nil when Path resolved.
type ToolStatus struct {
	Tool
	Path string
	Err  error
}

// Available reports whether the tool can be executed.
func (s ToolStatus) Available() bool {
	return s.Err == nil
}

// LookupTools resolves every tool command on PATH, or as given when it is a path.
func LookupTools(tools []Tool) []ToolStatus {
	statuses := make([]ToolStatus, len(tools))
	for i, tool := range tools {
		tool.Command = strings.TrimSpace(tool.Command)
		statuses[i].Tool = tool
		if tool.Command == "" {
			statuses[i].Err = ErrToolNotConfigured
			continue
		}
		path, err := exec.LookPath(tool.Command)
		if err != nil {
			statuses[i].Err = fmt.Errorf("%q not found", tool.Command)
			continue
		}
		statuses[i].Path = path
	}
	return statuses
}

// MissingTools returns the names of required tools that could not be resolved.
func MissingTools(statuses []ToolStatus) []string {
	var names []string
	for _, status := range statuses {
		if !status.Available() && !status.Optional {
			names = append(names, status.Name)
		}
	}
	return names
}
