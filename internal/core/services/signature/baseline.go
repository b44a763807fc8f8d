package signature

import (
	"context"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// baselineSignatures ship with the binary so a fresh store is never empty.
var baselineSignatures = []domain.MalwareSignature{
	{
		MD5:         "5d41402abc4b2a76b9719d911017c592",
		Family:      "Trojan.Generic.Sample",
		Severity:    domain.SeverityHigh,
		Description: "Generic trojan sample used for detection verification",
	},
	{
		MD5:         "44d88612fea8a8f36de82e1278abb02f",
		SHA1:        "3395856ce81f2b7382dee72602f798b642f14140",
		SHA256:      "275a021bbfb6489e54d471899f7db9d1663fc695ec2fe2a2c4538aabf651fd0f",
		Family:      "EICAR-Test-File",
		Severity:    domain.SeverityLow,
		Description: "EICAR anti-malware test file",
	},
	{
		SHA256:      "ed01ebfbc9eb5bbea545af4d01bf5f1071661840480439c6e5babe8e080e41aa",
		Family:      "Ransom.WannaCry",
		Severity:    domain.SeverityCritical,
		Description: "WannaCry ransomware dropper",
	},
}

// BaselineFeed publishes the built-in signature set.
type BaselineFeed struct{}

// NewBaselineFeed creates the built-in feed.
func NewBaselineFeed() *BaselineFeed {
	return &BaselineFeed{}
}

// Name identifies the feed.
func (BaselineFeed) Name() string { return "baseline" }

// Fetch returns a copy of the built-in signatures.
func (BaselineFeed) Fetch(ctx context.Context) ([]domain.MalwareSignature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.MalwareSignature, len(baselineSignatures))
	copy(out, baselineSignatures)
	return out, nil
}

var _ ports.SignatureFeed = BaselineFeed{}
