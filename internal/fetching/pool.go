package fetching

import (
	"context"

	"github.com/sirupsen/logrus"
)

// SessionPool bounds the number of concurrently open browser sessions.
// Acquire blocks until a slot frees up or the context expires; Release must
// run on every exit path so slots are never leaked across audits.
type SessionPool struct {
	driver *BrowserDriver
	slots  chan struct{}
	logger *logrus.Logger
}

func NewSessionPool(driver *BrowserDriver, size int, logger *logrus.Logger) *SessionPool {
	if logger == nil {
		logger = logrus.New()
	}
	if size < 1 {
		size = 1
	}
	return &SessionPool{
		driver: driver,
		slots:  make(chan struct{}, size),
		logger: logger,
	}
}

func (p *SessionPool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	sess, err := p.driver.NewSession()
	if err != nil {
		<-p.slots
		return nil, err
	}
	return sess, nil
}

func (p *SessionPool) Release(sess *Session) {
	if sess == nil {
		return
	}
	sess.Close()
	select {
	case <-p.slots:
	default:
		p.logger.Warn("session released without a held slot")
	}
}

func (p *SessionPool) Close() error {
	return p.driver.Close()
}
