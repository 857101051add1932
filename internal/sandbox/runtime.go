package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/codeheal/healer/internal/classify"
	"github.com/codeheal/healer/internal/defect"
	"github.com/codeheal/healer/internal/detect"
)

// Default resource caps for isolated runtime execution (§4.3 item 2).
const (
	DefaultMemoryCapMiB = 256
	DefaultCPUCap       = 0.5
)

// IsolationBackend runs a command inside an isolated container: no
// network, bounded memory/CPU, read-only workspace mount.
type IsolationBackend interface {
	// Name identifies the backend for logging (e.g. "docker").
	Name() string
	// Run executes entryPoint under root inside the container and returns
	// its combined output.
	Run(ctx context.Context, root string, entryPoint []string) (string, error)
}

// ProbeIsolationBackend looks for a usable container runtime with
// exec.LookPath plus a `docker version` call, never a client SDK import.
func ProbeIsolationBackend(ctx context.Context) (IsolationBackend, error) {
	path, err := exec.LookPath("docker")
	if err != nil {
		return nil, fmt.Errorf("docker not found on PATH: %w", err)
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(checkCtx, path, "version").Run(); err != nil {
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return &dockerBackend{bin: path}, nil
}

type dockerBackend struct{ bin string }

func (d *dockerBackend) Name() string { return "docker" }

func (d *dockerBackend) Run(ctx context.Context, root string, entryPoint []string) (string, error) {
	args := []string{
		"run", "--rm",
		"--network", "none",
		"--memory", strconv.Itoa(DefaultMemoryCapMiB) + "m",
		"--cpus", strconv.FormatFloat(DefaultCPUCap, 'f', -1, 64),
		"-v", root + ":/workspace:ro",
		"-w", "/workspace",
		runtimeImageFor(entryPoint),
	}
	args = append(args, entryPoint...)
	return boundedRun(ctx, "", RuntimeTimeout, d.bin, args...)
}

// runtimeImageFor picks a minimal language image based on the entry
// point's interpreter/command name.
func runtimeImageFor(entryPoint []string) string {
	if len(entryPoint) == 0 {
		return "alpine:3"
	}
	switch entryPoint[0] {
	case "python3", "python":
		return "python:3-alpine"
	case "node":
		return "node:alpine"
	case "java":
		return "eclipse-temurin:21-alpine"
	default:
		return "alpine:3"
	}
}

// runRuntime attempts best-effort execution of each candidate entry point
// (§4.3 item 2). With a backend, each runs isolated; without one, it
// degrades to a direct bounded subprocess and labels the resulting
// defects Degraded.
func (e *Executor) runRuntime(ctx context.Context, root string, det detect.Result, entryPoints []string) []defect.Defect {
	var out []defect.Defect
	for _, ep := range entryPoints {
		cmd := runtimeCommand(det, ep)
		if len(cmd) == 0 {
			continue
		}

		var output string
		var runErr error
		degraded := e.Isolation == nil

		if e.Isolation != nil {
			output, runErr = e.Isolation.Run(ctx, root, cmd)
		} else {
			output, runErr = boundedRun(ctx, root, RuntimeTimeout, cmd[0], cmd[1:]...)
		}
		if output == "" {
			if runErr != nil {
				e.Logger.Debug("runtime execution produced no output", "entry_point", ep, "error", runErr)
			}
			continue
		}

		defects := classify.ToDefects(output, "runtime")
		if degraded {
			for i := range defects {
				defects[i].Degraded = true
			}
		}
		out = append(out, defects...)
	}
	return out
}

// runtimeCommand builds the interpreter invocation for an entry point
// based on the detected language.
func runtimeCommand(det detect.Result, entryPoint string) []string {
	switch det.Language {
	case detect.Python:
		return []string{"python3", entryPoint}
	case detect.Node, detect.TypeScript:
		return []string{"node", entryPoint}
	case detect.Java:
		return []string{"java", entryPoint}
	default:
		return nil
	}
}
