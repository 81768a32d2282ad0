package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// orderedCounts 是保持插入顺序的计数表，序列化为 JSON 对象时按该顺序输出键。
type orderedCounts struct {
	keys   []string
	counts map[string]int
}

func newOrderedCounts(keys ...string) *orderedCounts {
	c := &orderedCounts{counts: map[string]int{}}
	for _, k := range keys {
		c.keys = append(c.keys, k)
		c.counts[k] = 0
	}
	return c
}

func (c *orderedCounts) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

func (c *orderedCounts) get(key string) int { return c.counts[key] }

func (c *orderedCounts) len() int { return len(c.keys) }

// sortedByKey 返回按键升序排列的副本。
func (c *orderedCounts) sortedByKey() *orderedCounts {
	out := &orderedCounts{keys: append([]string(nil), c.keys...), counts: c.counts}
	sort.Strings(out.keys)
	return out
}

// sortedByCountDesc 返回按数量降序排列的副本，数量相同时保持原顺序。
func (c *orderedCounts) sortedByCountDesc() *orderedCounts {
	out := &orderedCounts{keys: append([]string(nil), c.keys...), counts: c.counts}
	sort.SliceStable(out.keys, func(i, j int) bool {
		return out.counts[out.keys[i]] > out.counts[out.keys[j]]
	})
	return out
}

// String 以 {'键': 数量, ...} 的形式输出，用于提示词。
func (c *orderedCounts) String() string {
	items := make([]string, len(c.keys))
	for i, k := range c.keys {
		items[i] = fmt.Sprintf("'%s': %d", k, c.counts[k])
	}
	return "{" + strings.Join(items, ", ") + "}"
}

func (c *orderedCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", c.counts[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
