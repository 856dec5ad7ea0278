// Package paginator 把有序结果集切成固定大小、从 1 开始编号的页
//
// 页码解析是宽松的：缺失或非数字的页码取第一页，超出 1..NumPages 的取最后一页
package paginator

import (
	"strconv"
	"strings"
)

// DefaultPerPage 所有帖子列表的每页条数
const DefaultPerPage = 10

// Page 列表的一页及翻页所需的元数据
type Page[T any] struct {
	ObjectList  []T   `json:"object_list"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Len 本页条数
func (p *Page[T]) Len() int { return len(p.ObjectList) }

// ParseNumber 把查询参数解析为页码，无法解析时返回 1
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// NumPages 至少为 1，空列表也有一个空页
func NumPages(count int64, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if count <= 0 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// Resolve 把请求的页码映射到实际存在的页
func Resolve(number, numPages int) int {
	if number < 1 || number > numPages {
		return numPages
	}
	return number
}

// Window 返回已解析页码的 offset 和 limit
func Window(number, perPage int) (offset, limit int) {
	return (number - 1) * perPage, perPage
}

// Plan 请求页对应的页码和查询窗口
type Plan struct {
	Number   int
	NumPages int
	Offset   int
	Limit    int
	Count    int64
	PerPage  int
}

// NewPlan 按总数 count 解析请求的页
func NewPlan(requested int, count int64, perPage int) Plan {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	numPages := NumPages(count, perPage)
	number := Resolve(requested, numPages)
	offset, limit := Window(number, perPage)
	return Plan{
		Number:   number,
		NumPages: numPages,
		Offset:   offset,
		Limit:    limit,
		Count:    count,
		PerPage:  perPage,
	}
}

// Build 把按 plan 窗口查出的数据包装成 Page
func Build[T any](plan Plan, items []T) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		ObjectList:  items,
		Number:      plan.Number,
		NumPages:    plan.NumPages,
		Count:       plan.Count,
		PerPage:     plan.PerPage,
		HasNext:     plan.Number < plan.NumPages,
		HasPrevious: plan.Number > 1,
	}
}
