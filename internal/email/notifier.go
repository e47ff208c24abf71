package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/usermanagement-backend/pkg/db/models"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/angelmondragon/usermanagement-backend/pkg/metrics"
)

const defaultDeliveryTimeout = 10 * time.Second

// Notifier sends account lifecycle emails. Delivery never blocks or fails the
// caller; errors are logged and counted.
type Notifier interface {
	SendVerification(ctx context.Context, user *models.User, token string)
	SendAccountLocked(ctx context.Context, user *models.User)
}

type NotifierParams struct {
	Transport     Transport
	Logger        *logger.Logger
	Metrics       *metrics.EmailMetrics
	PublicBaseURL string
	Timeout       time.Duration
}

// AsyncNotifier dispatches each email on its own goroutine.
type AsyncNotifier struct {
	transport Transport
	logg      *logger.Logger
	metrics   *metrics.EmailMetrics
	baseURL   string
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewNotifier(params NotifierParams) (*AsyncNotifier, error) {
	if params.Transport == nil {
		return nil, fmt.Errorf("email transport required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(params.PublicBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("public base url required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &AsyncNotifier{
		transport: params.Transport,
		logg:      params.Logger,
		metrics:   params.Metrics,
		baseURL:   base,
		timeout:   timeout,
	}, nil
}

// VerificationURL builds the public link consumed by GET /verify-email/{id}/{token}.
func (n *AsyncNotifier) VerificationURL(user *models.User, token string) string {
	return fmt.Sprintf("%s/verify-email/%s/%s", n.baseURL, user.ID.String(), url.PathEscape(token))
}

func (n *AsyncNotifier) SendVerification(ctx context.Context, user *models.User, token string) {
	if user == nil || token == "" {
		return
	}
	n.dispatch(ctx, Message{
		Kind:    KindVerifyEmail,
		To:      user.Email,
		Subject: "Verify your account",
		Vars: map[string]string{
			"name":             displayName(user),
			"verification_url": n.VerificationURL(user, token),
		},
	})
}

func (n *AsyncNotifier) SendAccountLocked(ctx context.Context, user *models.User) {
	if user == nil {
		return
	}
	n.dispatch(ctx, Message{
		Kind:    KindAccountLocked,
		To:      user.Email,
		Subject: "Your account has been locked",
		Vars: map[string]string{
			"name": displayName(user),
		},
	})
}

// Wait blocks until in-flight deliveries finish; called on shutdown.
func (n *AsyncNotifier) Wait() {
	n.wg.Wait()
}

func (n *AsyncNotifier) dispatch(ctx context.Context, msg Message) {
	// the request context is canceled once the response is written
	base := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		deliverCtx, cancel := context.WithTimeout(base, n.timeout)
		defer cancel()

		logCtx := n.logg.WithFields(base, map[string]any{
			"email_kind": string(msg.Kind),
			"to":         msg.To,
		})

		defer func() {
			if r := recover(); r != nil {
				n.logg.Error(logCtx, "email delivery panicked", fmt.Errorf("panic: %v", r))
			}
		}()

		start := time.Now()
		err := n.transport.Deliver(deliverCtx, msg)
		n.metrics.Observe(string(msg.Kind), time.Since(start), err)
		if err != nil {
			n.logg.Error(logCtx, "email delivery failed", err)
			return
		}
		n.logg.Debug(logCtx, "email dispatched")
	}()
}

func displayName(user *models.User) string {
	if user.FirstName != nil && strings.TrimSpace(*user.FirstName) != "" {
		return strings.TrimSpace(*user.FirstName)
	}
	return user.Nickname
}

// NopNotifier discards every email.
type NopNotifier struct{}

func (NopNotifier) SendVerification(context.Context, *models.User, string) {}
func (NopNotifier) SendAccountLocked(context.Context, *models.User) {}
