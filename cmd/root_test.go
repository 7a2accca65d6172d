package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/Lucretiel/rewrite/config"
	"github.com/Lucretiel/rewrite/engine"
)

// execute drives a freshly built root command, the way main does.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestArgs_MissingSeparator(t *testing.T) {
	err := execute(t, "file.txt", "cat")
	if err == nil {
		t.Fatal("expected error without '--'")
	}
	if !strings.Contains(err.Error(), "'--'") {
		t.Errorf("error: %v", err)
	}
}

func TestArgs_NoFileBeforeSeparator(t *testing.T) {
	if err := execute(t, "--", "cat"); err == nil {
		t.Fatal("expected error with no file before '--'")
	}
}

func TestArgs_TwoFilesBeforeSeparator(t *testing.T) {
	if err := execute(t, "a.txt", "b.txt", "--", "cat"); err == nil {
		t.Fatal("expected error with two files before '--'")
	}
}

func TestArgs_NoCommandAfterSeparator(t *testing.T) {
	err := execute(t, "file.txt", "--")
	if err == nil {
		t.Fatal("expected error with no command after '--'")
	}
	if !strings.Contains(err.Error(), "no command") {
		t.Errorf("error: %v", err)
	}
}

func TestArgs_ScratchFlagsExclusive(t *testing.T) {
	if err := execute(t, "-t", "-C", "file.txt", "--", "cat"); err == nil {
		t.Fatal("expected error for -t together with -C")
	}
}

func TestResolveCommand_Plain(t *testing.T) {
	o := &options{}
	program, args := o.resolveCommand([]string{"tr", "a-z", "A-Z"}, config.Default())
	if program != "tr" {
		t.Errorf("program: got %q, want %q", program, "tr")
	}
	if len(args) != 2 || args[0] != "a-z" || args[1] != "A-Z" {
		t.Errorf("args: got %v", args)
	}
}

func TestResolveCommand_Shell(t *testing.T) {
	t.Setenv("SHELL", "/bin/bash")

	o := &options{useShell: true}
	program, args := o.resolveCommand([]string{"sort", "|", "uniq"}, config.Default())
	if program != "/bin/bash" {
		t.Errorf("program: got %q, want %q", program, "/bin/bash")
	}
	if len(args) != 2 || args[0] != "-c" || args[1] != "sort | uniq" {
		t.Errorf("args: got %v", args)
	}
}

func TestResolveCommand_ShellFromConfig(t *testing.T) {
	t.Setenv("SHELL", "/bin/bash")

	cfg := config.Default()
	cfg.Shell = "/bin/zsh"
	o := &options{useShell: true}
	program, _ := o.resolveCommand([]string{"ls"}, cfg)
	if program != "/bin/zsh" {
		t.Errorf("program: got %q, want config shell", program)
	}
}

func TestResolveCommand_ShellFallback(t *testing.T) {
	t.Setenv("SHELL", "")

	o := &options{useShell: true}
	program, _ := o.resolveCommand([]string{"ls"}, config.Default())
	if program != "/bin/sh" {
		t.Errorf("program: got %q, want /bin/sh", program)
	}
}

func TestResolveScratch(t *testing.T) {
	dirCfg := config.Default()
	dirCfg.Scratch.Dir = "/from/config"
	tmpCfg := config.Default()
	tmpCfg.Scratch.UseTmp = true
	cwdCfg := config.Default()
	cwdCfg.Scratch.UseCwd = true

	tests := []struct {
		name     string
		dir      string
		tmp, cwd bool
		cfg      *config.Config
		wantMode engine.ScratchDirMode
		wantDir  string
	}{
		{"default", "", false, false, config.Default(), engine.ScratchSibling, ""},
		{"dir flag", "/x", false, false, config.Default(), engine.ScratchExplicit, "/x"},
		{"tmp flag", "", true, false, config.Default(), engine.ScratchTemp, ""},
		{"cwd flag", "", false, true, config.Default(), engine.ScratchCwd, ""},
		{"config dir", "", false, false, dirCfg, engine.ScratchExplicit, "/from/config"},
		{"config tmp", "", false, false, tmpCfg, engine.ScratchTemp, ""},
		{"config cwd", "", false, false, cwdCfg, engine.ScratchCwd, ""},
		{"flag beats config", "", true, false, dirCfg, engine.ScratchTemp, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &options{scratchDir: tt.dir, useTmp: tt.tmp, useCwd: tt.cwd}
			mode, dir := o.resolveScratch(tt.cfg)
			if mode != tt.wantMode {
				t.Errorf("mode: got %v, want %v", mode, tt.wantMode)
			}
			if dir != tt.wantDir {
				t.Errorf("dir: got %q, want %q", dir, tt.wantDir)
			}
		})
	}
}

func TestResolveUser_Empty(t *testing.T) {
	o := &options{}
	cred, err := o.resolveUser()
	if err != nil {
		t.Fatalf("resolveUser error: %v", err)
	}
	if cred != nil {
		t.Errorf("expected nil credential, got %+v", cred)
	}
}

func TestResolveUser_Unknown(t *testing.T) {
	o := &options{runAs: "no-such-user-zz9"}
	if _, err := o.resolveUser(); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestLoadExtraEnv_FlagBeatsConfig(t *testing.T) {
	dir := t.TempDir()
	flagFile := dir + "/flag.env"
	if err := os.WriteFile(flagFile, []byte("SOURCE=flag\n"), 0o644); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	cfg := config.Default()
	cfg.Env.File = dir + "/config.env"
	o := &options{envFile: flagFile}
	env, err := o.loadExtraEnv(cfg)
	if err != nil {
		t.Fatalf("loadExtraEnv error: %v", err)
	}
	if len(env) != 1 || env[0] != "SOURCE=flag" {
		t.Errorf("env: got %v", env)
	}
}

func TestSetVersionInfo(t *testing.T) {
	oldVersion, oldCommit := version, commit
	t.Cleanup(func() { SetVersionInfo(oldVersion, oldCommit) })
	SetVersionInfo("1.2.3", "abcdef0")

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if got := buf.String(); got != "rewrite 1.2.3 (commit: abcdef0)\n" {
		t.Errorf("version output: got %q", got)
	}
}
