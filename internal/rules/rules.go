// Package rules implements the deterministic entity extraction and
// strong/weak classification rules that run ahead of the model provider.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/smilemakc/smslabel/internal/taxonomy"
)

var (
	reURL          = regexp.MustCompile(`https?://\S+|www\.[^\s]+\.[^\s]+`)
	rePhone        = regexp.MustCompile(`\b1\d{10}\b`)
	reOTPKeyword   = regexp.MustCompile(`验证码|校验码|动态码|OTP`)
	reOTPNear      = regexp.MustCompile(`(?:验证码|校验码|动态码|OTP)\D{0,6}(\d{4,8})`)
	reDigits4to8   = regexp.MustCompile(`\b\d{4,8}\b`)
	reCurrency     = regexp.MustCompile(`[￥¥]|RMB|CNY`)
	reAmountAmount = regexp.MustCompile(`(?:￥|¥|RMB|CNY)\s*(\d+(?:[.,]\d+)?)`)
	reAccountSfx   = regexp.MustCompile(`(?:尾号|末四位|后四位)\D{0,4}(\d{3,6})`)
	reDateTime     = regexp.MustCompile(`\d{4}[-/.]\d{1,2}[-/.]\d{1,2}(?:年\d{1,2}月\d{1,2}日)?(?:\s*\d{1,2}:\d{2}(?::\d{2})?)?|\d{1,2}:\d{2}(?::\d{2})?`)
)

var balanceKeywords = []string{"余额", "可用余额", "账户余额"}
var amountKeywords = []string{"金额", "支付", "扣款", "消费", "入账", "转入", "转出", "还款", "退款"}

var brandKeywords = []string{
	"工商银行", "建设银行", "农业银行", "中国银行", "招商银行", "交通银行", "浦发银行", "民生银行",
	"支付宝", "微信支付", "财付通", "云闪付",
	"顺丰", "中通", "圆通", "申通", "韵达", "京东物流", "菜鸟", "丰巢",
}

// Result is the output of running the rule engine against one message.
type Result struct {
	Label       *taxonomy.Label
	Entities    taxonomy.Entities
	Signals     map[string]string
	StrongHit   bool
}

// Run extracts entities and evaluates the strong-hit rule chain against
// content (and optional sender). Entity extraction is order-independent;
// the strong-hit chain is evaluated in a fixed priority order and stops at
// the first match.
func Run(content, sender string) Result {
	entities, signals := extractEntities(content, sender)

	if lbl, ok := strongHitVerificationCode(content, sender, entities); ok {
		return Result{Label: &lbl, Entities: entities, Signals: signals, StrongHit: true}
	}
	if lbl, ok := strongHitLogistics(content); ok {
		lbl = withEntities(lbl, entities)
		return Result{Label: &lbl, Entities: entities, Signals: signals, StrongHit: true}
	}
	if lbl, ok := strongHitGovernment(content); ok {
		lbl = withEntities(lbl, entities)
		return Result{Label: &lbl, Entities: entities, Signals: signals, StrongHit: true}
	}
	if lbl, ok := strongHitFinancial(content, sender); ok {
		lbl = withEntities(lbl, entities)
		return Result{Label: &lbl, Entities: entities, Signals: signals, StrongHit: true}
	}

	return Result{Entities: entities, Signals: signals, StrongHit: false}
}

// DetectFlags reports the three boolean flags computed at message insert
// time: has_url, has_amount, has_verification_code (the last requires
// both a 4-8 digit token and an OTP keyword).
func DetectFlags(content string) (hasURL, hasAmount, hasVerificationCode bool) {
	e, _ := extractEntities(content, "")
	return e.URL != "", e.Amount != nil, e.VerificationCode != ""
}

func extractEntities(content, sender string) (taxonomy.Entities, map[string]string) {
	var e taxonomy.Entities
	signals := map[string]string{}

	if m := reURL.FindString(content); m != "" {
		e.URL = m
	}
	if m := rePhone.FindString(content); m != "" {
		e.PhoneInText = m
	}

	if m := reOTPNear.FindStringSubmatch(content); len(m) == 2 {
		e.VerificationCode = m[1]
	} else if reOTPKeyword.MatchString(content) {
		if m := reDigits4to8.FindString(content); m != "" {
			e.VerificationCode = m
		}
	}

	hasCurrencySymbol := reCurrency.MatchString(content)
	if m := reAmountAmount.FindStringSubmatch(content); len(m) == 2 {
		if v, ok := parseAmount(m[1]); ok {
			signals["amount_raw"] = m[1]
			switch {
			case containsAny(content, balanceKeywords):
				e.Balance = &v
			case containsAny(content, amountKeywords) || hasCurrencySymbol:
				e.Amount = &v
			}
		}
	}

	if m := reAccountSfx.FindStringSubmatch(content); len(m) == 2 {
		e.AccountSuffix = m[1]
	}

	if m := reDateTime.FindString(content); m != "" {
		e.TimeText = m
	}

	if strings.TrimSpace(sender) != "" {
		e.Brand = strings.TrimSpace(sender)
	} else {
		for _, kw := range brandKeywords {
			if strings.Contains(content, kw) {
				e.Brand = kw
				break
			}
		}
	}

	return e, signals
}

func parseAmount(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "，", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// guessFromSender returns the industry implied by the sender string, or ""
// if none of the bank/insurance keywords match.
func guessFromSender(sender string) string {
	lower := strings.ToLower(sender)
	for _, kw := range []string{"bank", "银行", "证券", "保险"} {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return taxonomy.IndustryFinance
		}
	}
	return ""
}

func strongHitVerificationCode(content, sender string, e taxonomy.Entities) (taxonomy.Label, bool) {
	if e.VerificationCode == "" || !reOTPKeyword.MatchString(content) {
		return taxonomy.Label{}, false
	}
	industry := guessFromSender(sender)
	if industry == "" {
		industry = taxonomy.IndustryGeneral
	}
	l := taxonomy.Label{
		Industry:     industry,
		Type:         taxonomy.TypeVerificationCode,
		Entities:     e,
		Confidence:   0.98,
		NeedsReview:  false,
		Reasons:      []string{fmt.Sprintf("rule: verification_code=%s", e.VerificationCode)},
		ModelVersion: "n/a",
	}
	return taxonomy.Normalize(l), true
}

var logisticsKeywords = []string{"取件码", "快递", "驿站", "柜", "丰巢", "菜鸟", "中通", "圆通", "申通", "韵达", "顺丰", "京东物流"}

func strongHitLogistics(content string) (taxonomy.Label, bool) {
	if !containsAny(content, logisticsKeywords) {
		return taxonomy.Label{}, false
	}
	l := taxonomy.Label{
		Industry:     taxonomy.IndustryGeneral,
		Type:         taxonomy.TypeLogisticsPickup,
		Confidence:   0.92,
		Reasons:      []string{"rule: logistics_keyword"},
		ModelVersion: "n/a",
	}
	return taxonomy.Normalize(l), true
}

func withEntities(l taxonomy.Label, e taxonomy.Entities) taxonomy.Label {
	l.Entities = e
	return l
}

var govKeywords = []string{"公安", "税务", "社保", "公积金", "政府", "政务", "人民法院", "检察院", "交警", "医保"}

func strongHitGovernment(content string) (taxonomy.Label, bool) {
	if !containsAny(content, govKeywords) {
		return taxonomy.Label{}, false
	}
	l := taxonomy.Label{
		Industry:     taxonomy.IndustryGov,
		Type:         taxonomy.TypeGovNotice,
		Confidence:   0.93,
		Reasons:      []string{"rule: government_keyword"},
		ModelVersion: "n/a",
	}
	return taxonomy.Normalize(l), true
}

var financialKeywords = []string{"银行", "证券", "保险", "信用卡", "贷款", "还款", "入账", "扣款", "消费", "交易", "转账", "转入", "转出"}
var financialSenderKeywords = []string{"银行", "证券", "保险"}

func strongHitFinancial(content, sender string) (taxonomy.Label, bool) {
	if !containsAny(content, financialKeywords) && !containsAny(sender, financialSenderKeywords) {
		return taxonomy.Label{}, false
	}
	l := taxonomy.Label{
		Industry:     taxonomy.IndustryFinance,
		Type:         taxonomy.TypeTransactionAlert,
		Confidence:   0.90,
		Reasons:      []string{"rule: financial_keyword"},
		ModelVersion: "n/a",
	}
	return taxonomy.Normalize(l), true
}
