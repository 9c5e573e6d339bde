// Package biometric talks to an external biometric SDK process that binds
// key release to a fingerprint or face match.
//
// The process is untrusted. It receives one JSON request on stdin and may
// print any number of lines; only the last non-empty line counts, and it
// must match resultSchema. Anything else (bad JSON, a non-zero exit, a
// timeout, success=false) is reported as
// common.ErrBiometricVerificationFailed so callers can fall back to a
// manual passphrase. Sample references never reach the logs.
package biometric

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/logging"
)

const maxOutput = 1 << 20

type Enrollment struct {
	HelperData   string
	VerifierHash string
}

type Verification struct {
	DerivedKey []byte
}

type request struct {
	Op         string `json:"op"`
	SampleRef  string `json:"sampleRef"`
	ContextID  string `json:"contextId,omitempty"`
	HelperData string `json:"helperData,omitempty"`
}

type result struct {
	Success bool `json:"success"`
	Record  *struct {
		HelperData   string `json:"helperData"`
		VerifierHash string `json:"verifierHash"`
	} `json:"record"`
	Key   string `json:"key"`
	Error string `json:"error"`
}

type Gate struct {
	argv    []string
	timeout time.Duration
	logger  logging.Logger
}

// NewGate runs argv[0] with argv[1:] for every call, killing it after
// timeout.
func NewGate(argv []string, timeout time.Duration, l logging.Logger) *Gate {
	return &Gate{argv: argv, timeout: timeout, logger: l.With("module", "biometric")}
}

func (g *Gate) Enroll(ctx context.Context, sampleRef, contextID string) (*Enrollment, error) {
	res, err := g.run(ctx, request{Op: "enroll", SampleRef: sampleRef, ContextID: contextID})
	if err != nil {
		return nil, err
	}
	if res.Record == nil {
		return nil, g.fail(ctx, "enroll", "no enrollment record in output")
	}
	return &Enrollment{HelperData: res.Record.HelperData, VerifierHash: res.Record.VerifierHash}, nil
}

// Verify returns the key the SDK re-derives from a matching sample. The key
// is sent base64 encoded.
func (g *Gate) Verify(ctx context.Context, sampleRef, helperData string) (*Verification, error) {
	res, err := g.run(ctx, request{Op: "verify", SampleRef: sampleRef, HelperData: helperData})
	if err != nil {
		return nil, err
	}
	if res.Key == "" {
		return nil, g.fail(ctx, "verify", "no key in output")
	}
	key, err := base64.StdEncoding.DecodeString(res.Key)
	if err != nil {
		return nil, g.fail(ctx, "verify", "key is not base64")
	}
	return &Verification{DerivedKey: key}, nil
}

func (g *Gate) run(ctx context.Context, req request) (*result, error) {
	if len(g.argv) == 0 {
		return nil, g.fail(ctx, req.Op, "no biometric command configured")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, g.fail(ctx, req.Op, "encode request")
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, g.argv[0], g.argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &limitedWriter{w: &stdout, n: maxOutput}
	cmd.Stderr = io.Discard
	cmd.WaitDelay = time.Second

	start := time.Now()
	err = cmd.Run()
	if ctx.Err() != nil {
		return nil, g.fail(ctx, req.Op, "timed out after "+g.timeout.String())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, g.fail(ctx, req.Op, fmt.Sprintf("exit status %d", exitErr.ExitCode()))
		}
		return nil, g.fail(ctx, req.Op, "could not start process")
	}
	g.logger.Debug(ctx, "biometric process finished", "op", req.Op, "elapsed", time.Since(start))

	line := lastLine(stdout.Bytes())
	if len(line) == 0 {
		return nil, g.fail(ctx, req.Op, "empty output")
	}

	ok, why, err := validateResult(line)
	if err != nil {
		return nil, g.fail(ctx, req.Op, "output is not JSON")
	}
	if !ok {
		return nil, g.fail(ctx, req.Op, "output failed schema validation: "+why)
	}

	var res result
	if err := json.Unmarshal(line, &res); err != nil {
		return nil, g.fail(ctx, req.Op, "output is not JSON")
	}
	if !res.Success {
		return nil, g.fail(ctx, req.Op, res.Error)
	}
	return &res, nil
}

func (g *Gate) fail(ctx context.Context, op, reason string) error {
	g.logger.Warn(ctx, "biometric verification failed", "op", op, "reason", reason)
	return fmt.Errorf("%w: %s", common.ErrBiometricVerificationFailed, reason)
}

func lastLine(out []byte) []byte {
	var last []byte
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), maxOutput)
	for sc.Scan() {
		if l := bytes.TrimSpace(sc.Bytes()); len(l) > 0 {
			last = append(last[:0], l...)
		}
	}
	if sc.Err() != nil {
		return nil
	}
	return last
}

// limitedWriter drops everything past n bytes instead of failing the
// process with a broken pipe.
type limitedWriter struct {
	w io.Writer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if l.n <= 0 {
		return total, nil
	}
	if len(p) > l.n {
		p = p[:l.n]
	}
	n, err := l.w.Write(p)
	l.n -= n
	if err != nil {
		return n, err
	}
	return total, nil
}
