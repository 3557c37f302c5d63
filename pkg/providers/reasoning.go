package providers

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// reasoningBlock 匹配成对的推理标记及其内容，结束标记必须与开始标记同名
var reasoningBlock = regexp2.MustCompile(
	`(?s)<(reasoning|Reasoning|REASONING|思考|思路|推理|分析|Analysis|ANALYSIS|think|Think|THINK)>.*?</\1>`,
	regexp2.None)

func init() {
	reasoningBlock.MatchTimeout = time.Second
}

// FilterReasoning 移除成对的推理标记及其内容。没有完整标记对时原样返回
func FilterReasoning(content string) string {
	if ok, err := reasoningBlock.MatchString(content); err != nil || !ok {
		return content
	}

	result, err := reasoningBlock.Replace(content, "", -1, -1)
	if err != nil {
		return content
	}
	return strings.TrimSpace(result)
}
