package kubernetes

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/gamgui-io/gamgui/internal/models"
)

// Labels applied to session pods.
const (
	LabelApp       = "app"
	LabelSessionID = "gamgui.io/session-id"
	LabelUser      = "gamgui.io/user"

	appName       = "gamgui"
	containerName = "gam"

	// credsMountPath is where GAM expects its credential files.
	credsMountPath = "/root/.gam"
)

type podParams struct {
	SessionID      string
	UserID         string
	Namespace      string
	Image          string
	ServiceAccount string
	Env            map[string]string
}

// buildPod assembles the session pod spec. The pod idles until the terminal
// bridge execs into it; the per-user credential secret, when present, is
// mounted where GAM looks for it.
func buildPod(p podParams) *corev1.Pod {
	env := []corev1.EnvVar{
		{Name: "GAMGUI_SESSION_ID", Value: p.SessionID},
		{Name: "GAMGUI_USER", Value: p.UserID},
	}
	for k, v := range p.Env {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}

	optional := true
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      models.PodNameForSession(p.SessionID),
			Namespace: p.Namespace,
			Labels: map[string]string{
				LabelApp:       appName,
				LabelSessionID: p.SessionID,
				LabelUser:      labelSafeUser(p.UserID),
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy:      corev1.RestartPolicyNever,
			ServiceAccountName: p.ServiceAccount,
			Containers: []corev1.Container{
				{
					Name:    containerName,
					Image:   p.Image,
					Command: []string{"/bin/sh", "-c", "sleep infinity"},
					Env:     env,
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse("100m"),
							corev1.ResourceMemory: resource.MustParse("256Mi"),
						},
						Limits: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse("500m"),
							corev1.ResourceMemory: resource.MustParse("512Mi"),
						},
					},
					VolumeMounts: []corev1.VolumeMount{
						{
							Name:      "gam-credentials",
							MountPath: credsMountPath,
							ReadOnly:  true,
						},
					},
				},
			},
			Volumes: []corev1.Volume{
				{
					Name: "gam-credentials",
					VolumeSource: corev1.VolumeSource{
						Secret: &corev1.SecretVolumeSource{
							SecretName: credentialSecretName(p.UserID),
							Optional:   &optional,
						},
					},
				},
			},
		},
	}
}

// credentialSecretName is the Kubernetes secret holding a user's synced GAM
// credentials (one key per credential type).
func credentialSecretName(userID string) string {
	return "gam-creds-" + labelSafeUser(userID)
}

// labelSafeUser maps a user ID onto a string valid as a label value and a
// DNS-1123 name fragment. Plain IDs pass through unchanged; anything else
// (email addresses) is lowercased, stripped of invalid runes, and suffixed
// with a hash of the original so distinct users stay distinct.
func labelSafeUser(userID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(userID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}

	s := strings.Trim(b.String(), "-")
	if len(s) > 31 {
		s = strings.Trim(s[:31], "-")
	}
	if s == userID {
		return s
	}

	sum := sha256.Sum256([]byte(userID))
	suffix := hex.EncodeToString(sum[:4])
	if s == "" {
		return "u-" + suffix
	}
	return s + "-" + suffix
}
