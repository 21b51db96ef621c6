package scoring

import (
	"regexp"

	"github.com/veridianlabs/trustlens/pkg/models"
)

// Rule tables are data, not code: detection and classification iterate these
// tables so they can be unit-tested and extended without touching control
// flow.

// factorVocabularies feed the keyword-match base score of the pattern
// engine: +8 per distinct matched keyword.
var factorVocabularies = map[string][]string{
	"documentation_quality": {
		"documentation", "whitepaper", "litepaper", "tutorial", "guide",
		"api reference", "getting started", "faq", "changelog", "roadmap",
	},
	"transparency": {
		"team", "founder", "about us", "linkedin", "advisors",
		"contact", "company", "registered", "location", "mission",
	},
	"security_documentation": {
		"audit", "audited", "bug bounty", "penetration test", "security policy",
		"responsible disclosure", "multisig", "timelock", "insurance", "formal verification",
	},
	"community_engagement": {
		"twitter", "discord", "telegram", "reddit", "forum",
		"community", "blog", "newsletter", "ama", "governance",
	},
	"technical_implementation": {
		"github", "open source", "smart contract", "testnet", "mainnet",
		"sdk", "api", "protocol", "architecture", "deployed",
	},
}

// factorFloors implement the baseline flooring: even with zero evidence the
// documentation and community factors never drop below 40. Preserved as-is
// from the reference behavior.
var factorFloors = map[string]float64{
	"documentation_quality":    40,
	"transparency":             35,
	"security_documentation":   30,
	"community_engagement":     40,
	"technical_implementation": 35,
}

// Project-type signal vocabularies. A page classifies as defi when it shows
// one strong signal, two moderate signals, or a chain-address pattern,
// unless the anti-signal counts clear their thresholds first.
var (
	defiStrongSignals = []string{
		"liquidity pool", "yield farming", "staking rewards", "amm",
		"lending protocol", "total value locked", "tvl", "dex", "impermanent loss",
	}
	defiModerateSignals = []string{
		"defi", "token", "swap", "smart contract", "blockchain",
		"wallet", "airdrop", "tokenomics", "governance token", "apy",
	}
	portfolioSignals = []string{
		"my projects", "portfolio", "resume", "curriculum vitae", "hire me",
		"my work", "freelance", "side project",
	}
	businessSignals = []string{
		"our services", "our clients", "consulting", "case studies",
		"request a quote", "book a demo", "enterprise", "pricing plans",
	}

	chainAddressPattern = regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b|etherscan\.io|bscscan\.com|polygonscan\.com|solscan\.io`)
)

const (
	portfolioAntiThreshold = 3
	businessAntiThreshold  = 3
)

// redFlagRule is one text-match detection rule; pattern and keywords are
// alternatives. Structural absence rules live in absenceFlags.
type redFlagRule struct {
	flag     string
	keywords []string
	pattern  *regexp.Regexp
	types    []models.ProjectType // empty means every project type
}

var redFlagRules = []redFlagRule{
	{
		flag:     "guaranteed returns promised",
		keywords: []string{"guaranteed returns", "guaranteed profit", "risk-free returns", "cannot lose"},
	},
	{
		flag:    "unrealistic yield claims",
		pattern: regexp.MustCompile(`(?i)\b\d{3,}\s?%\s?(apy|apr|returns?)\b`),
		types:   []models.ProjectType{models.ProjectDeFi},
	},
	{
		flag:     "urgency pressure tactics",
		keywords: []string{"limited time only", "act now", "last chance", "don't miss out", "presale ending"},
	},
	{
		flag:     "anonymous team",
		keywords: []string{"anonymous team", "anon team", "team prefers to remain anonymous"},
	},
	{
		flag:     "no audit disclosed",
		keywords: []string{"unaudited", "no audit", "audit pending", "audit coming soon"},
		types:    []models.ProjectType{models.ProjectDeFi},
	},
	{
		flag:     "ponzi-style referral scheme",
		keywords: []string{"referral bonus", "recruit", "downline", "matrix plan"},
		types:    []models.ProjectType{models.ProjectDeFi, models.ProjectGeneral},
	},
	{
		flag:     "unverified partnership claims",
		keywords: []string{"partnered with binance", "backed by coinbase", "endorsed by"},
	},
}

// absenceFlags fire on structural gaps rather than text matches.
type absenceFlag struct {
	flag  string
	check func(*models.ExtractedContent) bool
	types []models.ProjectType
}

var absenceFlags = []absenceFlag{
	{
		flag:  "no team information",
		check: func(c *models.ExtractedContent) bool { return len(c.TeamInfo) < 50 },
	},
	{
		flag:  "no security documentation",
		check: func(c *models.ExtractedContent) bool { return len(c.SecurityInfo) < 30 },
		types: []models.ProjectType{models.ProjectDeFi},
	},
	{
		flag:  "no public code repositories",
		check: func(c *models.ExtractedContent) bool { return len(c.CodeRepositories) == 0 },
		types: []models.ProjectType{models.ProjectDeFi},
	},
}

// recognizedAuditFirms drive the audited-by-recognized-firm positive
// indicator.
var recognizedAuditFirms = []string{
	"certik", "trail of bits", "openzeppelin", "consensys diligence",
	"quantstamp", "halborn", "slowmist", "peckshield", "hacken",
	"sigma prime", "chainsecurity", "zellic", "spearbit",
}

type positiveRule struct {
	indicator string
	keywords  []string
}

var positiveRules = []positiveRule{
	{indicator: "bug bounty program", keywords: []string{"bug bounty", "responsible disclosure", "security rewards"}},
	{indicator: "open source code", keywords: []string{"open source", "github.com", "gitlab.com"}},
	{indicator: "verified team identities", keywords: []string{"linkedin.com/in/", "doxxed team", "verified team"}},
	{indicator: "on-chain governance", keywords: []string{"governance", "dao", "snapshot.org"}},
	{indicator: "multisig treasury", keywords: []string{"multisig", "multi-sig", "gnosis safe"}},
	{indicator: "timelocked contracts", keywords: []string{"timelock", "time-lock"}},
	{indicator: "active development", keywords: []string{"changelog", "release notes", "recently updated"}},
}

// Trust score calculator tables (§ adjustment phases). Matching is by
// substring over the lowercased flag or indicator text.

// criticalFlagVocabulary marks flags that both carry the -15 penalty and arm
// the hard score cap.
var criticalFlagVocabulary = []string{
	"guaranteed returns", "ponzi", "rug pull", "honeypot", "exit scam",
	"fake team", "plagiarized", "stolen",
}

// moderateFlagVocabulary carries the -8 penalty.
var moderateFlagVocabulary = []string{
	"anonymous team", "no audit", "unrealistic", "unverified",
	"no team information", "no security documentation", "urgency",
}

// highValueIndicators earn the larger bonus; everything else is standard.
var highValueIndicators = []string{
	"audit", "bug bounty", "verified team", "open source", "multisig",
}
