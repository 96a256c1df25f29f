package installer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgpt-tools/sgpt-setup/pkg/mirror"
)

func TestInstall_BuildsPipCommand(t *testing.T) {
	runner := &MockRunner{}
	inst := New(runner)

	m := mirror.Candidate{Name: "Tsinghua University", URL: "https://pypi.tuna.tsinghua.edu.cn/simple"}
	err := inst.Install(context.Background(), m, Package)

	require.NoError(t, err)
	require.Len(t, runner.Calls, 1)
	assert.Equal(t, []string{
		"python3", "-m", "pip", "install",
		"-i", "https://pypi.tuna.tsinghua.edu.cn/simple",
		"--trusted-host", "pypi.tuna.tsinghua.edu.cn",
		"shell-gpt",
	}, runner.Calls[0])
}

func TestInstall_FailureCarriesStderr(t *testing.T) {
	runner := &MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (string, string, error) {
			return "", "ERROR: No matching distribution found\n", errors.New("exit status 1")
		},
	}
	inst := New(runner)

	err := inst.Install(context.Background(), mirror.Fallback, Package)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "No matching distribution found")
}

func TestInstall_FailureWithoutStderr(t *testing.T) {
	runner := &MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (string, string, error) {
			return "", "", errors.New("exec: \"python3\": executable file not found in $PATH")
		},
	}
	inst := New(runner)

	err := inst.Install(context.Background(), mirror.Fallback, Package)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pip install shell-gpt failed")
}
