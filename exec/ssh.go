package exec

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	shellquote "github.com/kballard/go-shellquote"
	"golang.org/x/time/rate"
	osexec "os/exec"

	"github.com/DDNStorage/qosd/errors"
	"github.com/DDNStorage/qosd/internal/logging"
)

// CommandRunner executes a single already-quoted remote command line on
// server and returns its combined stdout. Swappable so tests never shell
// out to a real ssh binary.
type CommandRunner interface {
	Run(ctx context.Context, server, commandLine string) (string, error)
}

// sshRunner shells out to the system ssh client, grounded on the
// teacher's graph/query.go pattern of building an argument list with
// go-shellquote rather than handing a raw string to a shell.
type sshRunner struct {
	sshPath string
	user    string
}

func newSSHRunner(user string) *sshRunner {
	return &sshRunner{sshPath: "ssh", user: user}
}

func (r *sshRunner) Run(ctx context.Context, server, commandLine string) (string, error) {
	target := server
	if r.user != "" {
		target = r.user + "@" + server
	}

	cmd := osexec.CommandContext(ctx, r.sshPath, target, commandLine)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "ssh %s %q: %s", target, commandLine, stderr.String())
	}

	return stdout.String(), nil
}

// SSHFacade is the production Facade: it drives Lustre's NRS TBF control
// interface over SSH (`lctl set_param`/`lctl get_param`), pacing RPCs per
// server with a token-bucket limiter so a reconciliation storm against
// one server cannot saturate its management console.
type SSHFacade struct {
	runner CommandRunner

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpsLimit rate.Limit
}

// NewSSHFacade builds a production Facade. rpsLimit bounds how many
// remote commands per second are sent to any single server.
func NewSSHFacade(user string, rpsLimit float64) *SSHFacade {
	return &SSHFacade{
		runner:   newSSHRunner(user),
		limiters: make(map[string]*rate.Limiter),
		rpsLimit: rate.Limit(rpsLimit),
	}
}

func (f *SSHFacade) limiterFor(server string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[server]
	if !ok {
		l = rate.NewLimiter(f.rpsLimit, 1)
		f.limiters[server] = l
	}
	return l
}

func (f *SSHFacade) run(ctx context.Context, server string, args ...string) (string, error) {
	if err := f.limiterFor(server).Wait(ctx); err != nil {
		return "", err
	}

	line := shellquote.Join(args...)
	logging.Named("exec").Debugw("running remote command", "server", server, "command", line)

	return f.runner.Run(ctx, server, line)
}

func paramRoot(scope Scope) string {
	if scope == ScopeMetadata {
		return "mdt"
	}
	return "ost"
}

func (f *SSHFacade) startRule(ctx context.Context, server string, scope Scope, ruleName, expression string, rateLimit float64) error {
	param := fmt.Sprintf("%s.*.nrs_tbf_rule", paramRoot(scope))
	def := fmt.Sprintf("start %s %s rate=%s", ruleName, expression, strconv.FormatFloat(rateLimit, 'f', -1, 64))
	if _, err := f.run(ctx, server, "lctl", "set_param", param+"="+def); err != nil {
		return errors.Wrapf(err, "start rule %s on %s", ruleName, server)
	}
	return nil
}

func (f *SSHFacade) stopRule(ctx context.Context, server string, scope Scope, ruleName string) error {
	param := fmt.Sprintf("%s.*.nrs_tbf_rule", paramRoot(scope))
	def := fmt.Sprintf("stop %s", ruleName)
	if _, err := f.run(ctx, server, "lctl", "set_param", param+"="+def); err != nil {
		return errors.Wrapf(err, "stop rule %s on %s", ruleName, server)
	}
	return nil
}

// StartDataRule implements Facade.
func (f *SSHFacade) StartDataRule(ctx context.Context, server, ruleName, expression string, rateLimit float64) error {
	return f.startRule(ctx, server, ScopeData, ruleName, expression, rateLimit)
}

// StopDataRule implements Facade.
func (f *SSHFacade) StopDataRule(ctx context.Context, server, ruleName string) error {
	return f.stopRule(ctx, server, ScopeData, ruleName)
}

// StartMetadataRule implements Facade.
func (f *SSHFacade) StartMetadataRule(ctx context.Context, server, ruleName, expression string, rateLimit float64) error {
	return f.startRule(ctx, server, ScopeMetadata, ruleName, expression, rateLimit)
}

// StopMetadataRule implements Facade.
func (f *SSHFacade) StopMetadataRule(ctx context.Context, server, ruleName string) error {
	return f.stopRule(ctx, server, ScopeMetadata, ruleName)
}

// EnableTBF implements Facade.
func (f *SSHFacade) EnableTBF(ctx context.Context, server string, scope Scope) error {
	return f.setSchedulerMode(ctx, server, scope, ModeTBF)
}

// EnableFIFO implements Facade.
func (f *SSHFacade) EnableFIFO(ctx context.Context, server string, scope Scope) error {
	return f.setSchedulerMode(ctx, server, scope, ModeFIFO)
}

func (f *SSHFacade) setSchedulerMode(ctx context.Context, server string, scope Scope, mode SchedulerMode) error {
	param := fmt.Sprintf("%s.*.nrs_policies", paramRoot(scope))
	if _, err := f.run(ctx, server, "lctl", "set_param", param+"="+mode.String()); err != nil {
		return errors.Wrapf(err, "set scheduler mode %s on %s", mode, server)
	}
	return nil
}

// ListRules implements Facade.
func (f *SSHFacade) ListRules(ctx context.Context, server string, scope Scope) ([]string, error) {
	param := fmt.Sprintf("%s.*.nrs_tbf_rule", paramRoot(scope))
	out, err := f.run(ctx, server, "lctl", "get_param", "-n", param)
	if err != nil {
		return nil, errors.Wrapf(err, "list rules on %s", server)
	}
	return parseRuleNames(out), nil
}

// procUIDJobIDVar is the jobid_var value that attributes every RPC to
// "<process-name>.<uid>", the form usage.Aggregator expects (spec §4.5).
const procUIDJobIDVar = "procname_uid"

// SetJobIDVar sets the per-process-per-UID job-identifier format on
// server for scope, implementing controller.JobIDConfigurer. enable()
// calls this on every server before starting the worker; the aggregator
// cannot attribute a sample to a UID without it (spec §4.7).
func (f *SSHFacade) SetJobIDVar(ctx context.Context, server string, scope Scope) error {
	param := fmt.Sprintf("%s.jobid_var", paramRoot(scope))
	if _, err := f.run(ctx, server, "lctl", "set_param", param+"="+procUIDJobIDVar); err != nil {
		return errors.Wrapf(err, "set jobid_var on %s", server)
	}
	return nil
}

func parseRuleNames(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names
}
