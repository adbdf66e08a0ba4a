package export

import (
	"strings"
)

const textSeparator = "----------------------------------------"

// FormatQueryText formats lookups as the plain-text blocks copied to the
// clipboard.
func FormatQueryText(rows []QueryRow) string {
	blocks := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		if row.Failed() {
			b.WriteString("查询: " + row.Query + "\n")
			b.WriteString("错误: " + row.Error + "\n")
		} else {
			l := row.License
			b.WriteString("公司名称: " + l.Name + "\n")
			b.WriteString("公司类型: " + l.Type + "\n")
			b.WriteString("法定代表人: " + l.LegalPerson + "\n")
			b.WriteString("注册资金: " + l.RegCapital + "\n")
			b.WriteString("成立日期: " + l.EstablishDate + "\n")
			b.WriteString("经营状态: " + l.Status + "\n")
			b.WriteString("注册号: " + l.RegNumber + "\n")
			b.WriteString("企业地址: " + l.Address + "\n")
			b.WriteString("经营范围: " + l.BusinessScope + "\n")
		}
		b.WriteString(textSeparator)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// FormatVerificationText formats verifications as the plain-text blocks
// copied to the clipboard.
func FormatVerificationText(rows []VerifyRow) string {
	blocks := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		b.WriteString("公司名称: " + row.Company + "\n")
		b.WriteString("注册号: " + row.RegNum + "\n")
		if row.Failed() {
			b.WriteString("错误: " + row.Error + "\n")
		} else {
			b.WriteString("验证结果: " + row.Result.Status + "\n")
			b.WriteString("名称匹配: " + shiFou(row.Result.NameMatch) + "\n")
			b.WriteString("注册号匹配: " + shiFou(row.Result.CodeMatch) + "\n")
		}
		b.WriteString(textSeparator)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func shiFou(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
