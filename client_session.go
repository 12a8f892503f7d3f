package dashboard

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/pcprimedz/dashboard/jwt"
	"github.com/pcprimedz/dashboard/session"
	"go.uber.org/zap"
)

// Exchange returns the credential exchange bound to the client's backend.
func (c *Client) Exchange() *Exchange {
	return c.exchange
}

// Login exchanges credentials and adopts the returned token.
func (c *Client) Login(ctx context.Context, username, password string) (*session.User, error) {
	creds, err := c.exchange.Login(ctx, username, password)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		c.recordExchangeFailure(ctx, AuditLoginFailure, username, err)
		return nil, err
	}

	user, err := c.Adopt(ctx, creds)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		c.recordExchangeFailure(ctx, AuditLoginFailure, username, err)
		return nil, err
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditLoginSuccess,
		Username:  user.Username,
		Role:      user.Role,
		Success:   true,
	})
	return user, nil
}

// Register creates an admin account and adopts the returned token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*session.User, error) {
	creds, err := c.exchange.Register(ctx, username, email, password)
	if err != nil {
		c.metrics.Inc(MetricRegisterFailure)
		c.recordExchangeFailure(ctx, AuditRegisterFailure, username, err)
		return nil, err
	}

	user, err := c.Adopt(ctx, creds)
	if err != nil {
		c.metrics.Inc(MetricRegisterFailure)
		c.recordExchangeFailure(ctx, AuditRegisterFailure, username, err)
		return nil, err
	}

	c.metrics.Inc(MetricRegisterSuccess)
	c.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditRegisterSuccess,
		Username:  user.Username,
		Role:      user.Role,
		Success:   true,
	})
	return user, nil
}

func (c *Client) recordExchangeFailure(ctx context.Context, eventType, username string, err error) {
	if errors.Is(err, ErrMissingToken) {
		c.metrics.Inc(MetricMissingToken)
	}
	c.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Username:  username,
		Success:   false,
		Error:     errorKind(err),
	})
}

// Adopt stores creds as the current session. The user's role is read from
// the token; an undecodable token is stored with no role.
func (c *Client) Adopt(ctx context.Context, creds *Credentials) (*session.User, error) {
	if creds == nil {
		return nil, ErrInvalidCredential
	}
	user := &session.User{
		Username: creds.Username,
		Role:     jwt.RoleOf(creds.Token),
	}
	if err := c.store.SetAuth(ctx, creds.Token, user); err != nil {
		return nil, err
	}
	c.metrics.Inc(MetricSessionAdopted)
	c.logger.Debug("session adopted",
		zap.String("username", user.Username),
		zap.String("role", user.Role),
	)
	return user, nil
}

// Logout clears the session and sends the user to the login route.
func (c *Client) Logout(ctx context.Context) error {
	prev := c.store.User()
	cleared, err := c.store.ClearAuth(ctx)
	if cleared {
		c.metrics.Inc(MetricSessionCleared)
	}
	c.metrics.Inc(MetricLogout)

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditLogout,
		Success:   err == nil,
	}
	if prev != nil {
		event.Username = prev.Username
		event.Role = prev.Role
	}
	if err != nil {
		event.Error = errorKind(err)
	}
	c.audit.Emit(ctx, event)

	c.navigator.RedirectToLogin(ctx, c.cfg.LoginRoute)
	return err
}

// Restore loads the persisted session into the store.
func (c *Client) Restore(ctx context.Context) error {
	if err := c.store.Restore(ctx); err != nil {
		return err
	}
	if user := c.store.User(); c.store.Authenticated() {
		event := AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: AuditSessionRestored,
			Success:   true,
		}
		if user != nil {
			event.Username = user.Username
			event.Role = user.Role
		}
		c.audit.Emit(ctx, event)
	}
	return nil
}

// errorKind is a stable, detail-free label for audit records.
func errorKind(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.As(err, &apiErr):
		if apiErr.Code != "" {
			return apiErr.Code
		}
		return "http_" + strconv.Itoa(apiErr.Status)
	default:
		return "internal"
	}
}
