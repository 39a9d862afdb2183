// Package roomcode 生成并校验用户可输入的 6 位房间码。
//
// 房间码只需要低碰撞概率，不需要不可猜测性，所以这里使用 math/rand 而不是 crypto/rand。
package roomcode

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	// Alphabet 是房间码字符集 (36 个符号)。
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length 是房间码长度。
	Length = 6
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Generator 生成房间码，可并发使用。
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator 使用当前时间作为种子创建 Generator。
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator 使用固定种子创建 Generator，主要用于测试复现。
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate 从字母表中均匀抽取 Length 个字符。
func (g *Generator) Generate() string {
	b := make([]byte, Length)
	g.mu.Lock()
	for i := range b {
		b[i] = Alphabet[g.rnd.Intn(len(Alphabet))]
	}
	g.mu.Unlock()
	return string(b)
}

// IsValid 检查 code 是否严格匹配 ^[A-Z0-9]{6}$。
func IsValid(code string) bool {
	return codePattern.MatchString(code)
}

// Normalize 去掉首尾空白并转成大写，用于处理用户手动输入的房间码。
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
