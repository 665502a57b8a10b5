// Package kubernetes runs sessions as pods on a GKE cluster, attaching the
// terminal over the pod exec stream.
package kubernetes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
)

// Errors for Kubernetes runner operations.
var (
	// ErrClusterUnavailable is returned when the API server cannot be reached.
	ErrClusterUnavailable = errors.New("kubernetes cluster unavailable")

	// ErrPodCreationFailed is returned when pod creation fails.
	ErrPodCreationFailed = errors.New("pod creation failed")

	// ErrPodNotReady is returned when a pod does not reach Running in time.
	ErrPodNotReady = errors.New("pod not ready")
)

// podReadyTimeout bounds how long Start waits for a pod to reach Running.
const podReadyTimeout = 2 * time.Minute

// Config configures a Kubernetes runner.
type Config struct {
	// Namespace is the namespace for session pods.
	// Default: gamgui
	Namespace string

	// Image is the GAM container image.
	// Default: gam:latest
	Image string

	// ServiceAccount is the service account for session pods.
	ServiceAccount string

	// Kubeconfig is the path to a kubeconfig file.
	// Empty means in-cluster configuration.
	Kubeconfig string

	// Client overrides the API client. Tests inject a fake here.
	Client kubernetes.Interface

	// RESTConfig is required for exec streams when Client is injected.
	RESTConfig *rest.Config
}

// Runner starts sessions as Kubernetes pods.
type Runner struct {
	namespace      string
	image          string
	serviceAccount string
	client         kubernetes.Interface
	restConfig     *rest.Config
}

// New creates a Kubernetes runner. When no client is injected it connects
// via the kubeconfig path, or in-cluster config if the path is empty.
func New(cfg Config) (*Runner, error) {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "gamgui"
	}

	image := cfg.Image
	if image == "" {
		image = "gam:latest"
	}

	client := cfg.Client
	restConfig := cfg.RESTConfig
	if client == nil {
		var err error
		if cfg.Kubeconfig != "" {
			restConfig, err = clientcmd.BuildConfigFromFlags("", cfg.Kubeconfig)
		} else {
			restConfig, err = rest.InClusterConfig()
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", runner.ErrNotAvailable, err)
		}
		client, err = kubernetes.NewForConfig(restConfig)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", runner.ErrNotAvailable, err)
		}
	}

	return &Runner{
		namespace:      namespace,
		image:          image,
		serviceAccount: cfg.ServiceAccount,
		client:         client,
		restConfig:     restConfig,
	}, nil
}

// Kind returns the backend kind identifier.
func (r *Runner) Kind() string {
	return "kubernetes"
}

// Namespace returns the namespace session pods run in.
func (r *Runner) Namespace() string {
	return r.namespace
}

// Start creates a session pod, waits for it to reach Running, and attaches
// the terminal over an exec stream.
func (r *Runner) Start(ctx context.Context, opts runner.StartOptions) (runner.Handle, error) {
	pod := buildPod(podParams{
		SessionID:      opts.SessionID,
		UserID:         opts.UserID,
		Namespace:      r.namespace,
		Image:          r.image,
		ServiceAccount: r.serviceAccount,
		Env:            opts.Env,
	})

	created, err := r.client.CoreV1().Pods(r.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPodCreationFailed, err)
	}

	if err := r.waitForRunning(ctx, created.Name); err != nil {
		// Best-effort compensating delete of the partial pod
		r.deletePod(created.Name)
		return nil, err
	}

	sess, err := newSession(sessionOptions{
		Runner:  r,
		PodName: created.Name,
		Rows:    opts.Rows,
		Cols:    opts.Cols,
	})
	if err != nil {
		r.deletePod(created.Name)
		return nil, err
	}
	return sess, nil
}

// waitForRunning polls until the pod reaches Running, or fails fast on a
// terminal phase.
func (r *Runner) waitForRunning(ctx context.Context, podName string) error {
	err := wait.PollUntilContextTimeout(ctx, 2*time.Second, podReadyTimeout, true,
		func(ctx context.Context) (bool, error) {
			pod, err := r.client.CoreV1().Pods(r.namespace).Get(ctx, podName, metav1.GetOptions{})
			if err != nil {
				return false, nil // transient API errors: keep polling
			}
			switch pod.Status.Phase {
			case corev1.PodRunning:
				return true, nil
			case corev1.PodSucceeded, corev1.PodFailed:
				return false, fmt.Errorf("%w: pod %s entered phase %s", ErrPodNotReady, podName, pod.Status.Phase)
			}
			return false, nil
		})
	if err != nil {
		if wait.Interrupted(err) {
			return fmt.Errorf("%w: pod %s did not reach Running", ErrPodNotReady, podName)
		}
		return err
	}
	return nil
}

// podPhase fetches the current pod phase mapped to a session status.
func (r *Runner) podPhase(ctx context.Context, podName string) models.SessionStatus {
	pod, err := r.client.CoreV1().Pods(r.namespace).Get(ctx, podName, metav1.GetOptions{})
	if err != nil {
		return models.SessionStatusUnknown
	}
	return statusFromPhase(pod.Status.Phase)
}

// deletePod removes a session pod in the background with a short grace
// period. Deletion failures are logged, not returned: cleanup here is
// best-effort and the expiry sweep retries.
func (r *Runner) deletePod(podName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	grace := int64(10)
	err := r.client.CoreV1().Pods(r.namespace).Delete(ctx, podName, metav1.DeleteOptions{
		GracePeriodSeconds: &grace,
	})
	if err != nil {
		log.Printf("Failed to delete pod %s/%s: %v", r.namespace, podName, err)
	}
}

// statusFromPhase maps a pod phase to a session status.
func statusFromPhase(phase corev1.PodPhase) models.SessionStatus {
	switch phase {
	case corev1.PodPending:
		return models.SessionStatusPending
	case corev1.PodRunning:
		return models.SessionStatusRunning
	case corev1.PodSucceeded:
		return models.SessionStatusSucceeded
	case corev1.PodFailed:
		return models.SessionStatusFailed
	}
	return models.SessionStatusUnknown
}

var _ runner.Runner = (*Runner)(nil)
