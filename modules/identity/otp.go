package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidOTP is returned when a code is wrong, expired or never issued.
	ErrInvalidOTP = errors.New("invalid or expired otp")
	// ErrTooManyAttempts is returned after maxOTPAttempts wrong codes.
	ErrTooManyAttempts = errors.New("too many otp attempts")
	// ErrOTPNotFound is returned by an OTPStore when no code is pending.
	ErrOTPNotFound = errors.New("otp not found")
)

const (
	otpDigits      = 6
	maxOTPAttempts = 5
)

// OTPStore keeps hashed one-time codes outside the process so that every
// replica sees the same pending codes.
type OTPStore interface {
	Save(ctx context.Context, phone, codeHash string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (string, error)
	// IncrementAttempts counts a failed verification and returns the total.
	IncrementAttempts(ctx context.Context, phone string) (int64, error)
	Delete(ctx context.Context, phone string) error
}

// OTPSender delivers a code to the phone's owner.
type OTPSender interface {
	Send(ctx context.Context, phone, code string) error
}

// RedisOTPStore stores codes in Redis with a TTL.
type RedisOTPStore struct {
	client *redis.Client
	prefix string
}

var _ OTPStore = (*RedisOTPStore)(nil)

// NewRedisOTPStore creates a new RedisOTPStore.
func NewRedisOTPStore(client *redis.Client, prefix string) *RedisOTPStore {
	return &RedisOTPStore{client: client, prefix: prefix}
}

func (s *RedisOTPStore) codeKey(phone string) string     { return s.prefix + phone }
func (s *RedisOTPStore) attemptsKey(phone string) string { return s.prefix + phone + ":attempts" }

// Save stores the hash and resets the attempt counter.
func (s *RedisOTPStore) Save(ctx context.Context, phone, codeHash string, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.codeKey(phone), codeHash, ttl)
	pipe.Del(ctx, s.attemptsKey(phone))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// Get returns the pending hash or ErrOTPNotFound.
func (s *RedisOTPStore) Get(ctx context.Context, phone string) (string, error) {
	hash, err := s.client.Get(ctx, s.codeKey(phone)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrOTPNotFound
		}
		return "", fmt.Errorf("failed to read otp: %w", err)
	}
	return hash, nil
}

// IncrementAttempts bumps the failure counter, expiring with the code.
func (s *RedisOTPStore) IncrementAttempts(ctx context.Context, phone string) (int64, error) {
	key := s.attemptsKey(phone)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count otp attempt: %w", err)
	}
	if n == 1 {
		if ttl, err := s.client.PTTL(ctx, s.codeKey(phone)).Result(); err == nil && ttl > 0 {
			s.client.PExpire(ctx, key, ttl)
		}
	}
	return n, nil
}

// Delete removes the code and its attempt counter.
func (s *RedisOTPStore) Delete(ctx context.Context, phone string) error {
	if err := s.client.Del(ctx, s.codeKey(phone), s.attemptsKey(phone)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

// LogSender writes codes to the log. SMS delivery is handled by an external
// gateway in production deployments.
type LogSender struct{}

// Send logs the code.
func (LogSender) Send(_ context.Context, phone, code string) error {
	log.Printf("[identity] OTP for %s: %s", phone, code)
	return nil
}

// generateCode returns a uniformly random numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
