// Package prompt builds the strict JSON-only classification prompt sent
// to local model backends.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smilemakc/smslabel/internal/taxonomy"
)

func enumList(set map[string]bool) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}

// Build constructs a Chinese-language instruction that lists the two
// closed enumerations, prescribes the exact JSON output shape, and
// injects the message content plus whatever the rule engine already
// extracted.
func Build(content string, entities taxonomy.Entities, signals map[string]string) string {
	contentJSON, _ := json.Marshal(content)
	entitiesJSON, _ := json.Marshal(entities)
	signalsJSON, _ := json.Marshal(signals)

	return fmt.Sprintf(`你是一个短信分类助手。请仅输出一个 JSON 对象，不要输出任何解释或 Markdown 代码块。

可选行业（industry，必须从以下集合中选择）：%s
可选类型（type，必须从以下集合中选择）：%s

输出的 JSON 必须包含以下字段：
{
  "industry": string,
  "type": string,
  "confidence": number (0到1之间),
  "needs_review": boolean,
  "reasons": [string, ...],
  "entities": {
    "brand": string|null,
    "verification_code": string|null,
    "amount": number|null,
    "balance": number|null,
    "account_suffix": string|null,
    "time_text": string|null,
    "url": string|null,
    "phone_in_text": string|null
  },
  "rules_version": %q,
  "schema_version": %q
}

短信内容（JSON 字符串）：%s
规则引擎已提取的实体：%s
规则引擎信号：%s

请严格按照上述 JSON 结构输出，缺失字段用 null 填充。`,
		enumList(taxonomy.Industries),
		enumList(taxonomy.Types),
		taxonomy.RulesVersion,
		taxonomy.SchemaVersion,
		string(contentJSON),
		string(entitiesJSON),
		string(signalsJSON),
	)
}
