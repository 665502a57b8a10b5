package kubernetes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
)

func TestStatusFromPhase(t *testing.T) {
	tests := []struct {
		phase    corev1.PodPhase
		expected models.SessionStatus
	}{
		{corev1.PodPending, models.SessionStatusPending},
		{corev1.PodRunning, models.SessionStatusRunning},
		{corev1.PodSucceeded, models.SessionStatusSucceeded},
		{corev1.PodFailed, models.SessionStatusFailed},
		{corev1.PodUnknown, models.SessionStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			assert.Equal(t, tt.expected, statusFromPhase(tt.phase))
		})
	}
}

func podInPhase(name, namespace string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Status:     corev1.PodStatus{Phase: phase},
	}
}

func TestWaitForRunning(t *testing.T) {
	client := fake.NewSimpleClientset(podInPhase("gam-abc", "gamgui", corev1.PodRunning))
	r, err := New(Config{Client: client})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NoError(t, r.waitForRunning(ctx, "gam-abc"))
}

func TestWaitForRunningFailsFastOnTerminalPhase(t *testing.T) {
	client := fake.NewSimpleClientset(podInPhase("gam-abc", "gamgui", corev1.PodFailed))
	r, err := New(Config{Client: client})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.ErrorIs(t, r.waitForRunning(ctx, "gam-abc"), ErrPodNotReady)
}

func TestStartCleansUpPodThatNeverRuns(t *testing.T) {
	client := fake.NewSimpleClientset()
	// Every created pod immediately lands in Failed.
	client.PrependReactor("create", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		pod := action.(k8stesting.CreateAction).GetObject().(*corev1.Pod)
		pod.Status.Phase = corev1.PodFailed
		return false, nil, nil
	})

	r, err := New(Config{Client: client})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = r.Start(ctx, runner.StartOptions{SessionID: "deadbeef-1234", UserID: "alice"})
	require.ErrorIs(t, err, ErrPodNotReady)

	// The partial pod must not be left behind.
	_, err = client.CoreV1().Pods("gamgui").Get(ctx, "gam-deadbeef", metav1.GetOptions{})
	assert.True(t, apierrors.IsNotFound(err))
}

func TestRunnerDefaults(t *testing.T) {
	r, err := New(Config{Client: fake.NewSimpleClientset()})
	require.NoError(t, err)
	assert.Equal(t, "kubernetes", r.Kind())
	assert.Equal(t, "gamgui", r.Namespace())
	assert.Equal(t, "gam:latest", r.image)
}
