package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/moviematch/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		// 定义变量类型
		cel.Variable("movie", cel.DynType),
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("mctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是规则 DSL 解释器，使用 CEL (Common Expression Language) 实现。
// CEL 是 Google 开发的表达式语言，具有类型安全、高性能、线程安全等特性。
//
// 表达式语法（CEL 标准语法）：
//   - 影片字段：movie.rating >= 6.0 / movie.release_year >= 1990
//   - 类型包含："Drama" in movie.genres
//   - 分数：item.score > 0.7
//   - 标签：label.recall_source == "candidate_pool"
//   - 会话：mctx.stage == "exploration" / mctx.interactions > 10
//   - 逻辑组合：movie.rating >= 7.0 && !("Horror" in movie.genres)
//
// 注意：has(label.key) 可以用 label.key != null 替代
type Eval struct {
	item *core.Item
	mctx *core.MatchContext
	env  *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, mctx *core.MatchContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		item: item,
		mctx: mctx,
		env:  env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
// 空表达式视为 true（无约束）。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	if e.env == nil {
		return false, fmt.Errorf("cel env not initialized")
	}

	// 编译表达式
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	// 创建程序
	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	// 执行表达式
	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		// 对于不存在的 key，CEL 会返回错误
		// 用户应该使用 label.key != null 来检查存在性，而不是直接访问
		return false, fmt.Errorf("eval error: %v", err)
	}

	// 转换为布尔值
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	// 构建 label map
	labels := make(map[string]interface{})
	if e.item != nil {
		for k, v := range e.item.Labels {
			labels[k] = map[string]interface{}{
				"value":  v.Value,
				"source": v.Source,
			}
		}
	}

	// 构建 movie map（嵌入向量不暴露给规则层）
	movie := map[string]interface{}{}
	if e.item != nil && e.item.Movie != nil {
		m := e.item.Movie
		movie = map[string]interface{}{
			"id":              m.ID,
			"title":           m.Title,
			"release_year":    m.ReleaseYear,
			"genres":          m.Genres,
			"runtime_minutes": m.RuntimeMinutes,
			"rating":          m.Rating,
		}
	}

	// 构建 item map
	item := map[string]interface{}{}
	if e.item != nil {
		item = map[string]interface{}{
			"score":    e.item.Score,
			"features": e.item.Features,
			"labels":   labels,
		}
	}

	// 构建 mctx map
	mctx := map[string]interface{}{}
	if e.mctx != nil {
		mctx = map[string]interface{}{
			"user_id": e.mctx.UserID,
			"params":  e.mctx.Params,
		}
		if s := e.mctx.Session; s != nil {
			mctx["session_id"] = s.ID
			mctx["stage"] = string(s.Stage())
			mctx["interactions"] = s.Interactions
			mctx["mutual_likes"] = s.MutualLikes
		}
	}

	// 提供 label 作为顶层访问：label.recall_source 直接返回 value
	// 注意：CEL 访问不存在的 key 会报错，所以用 label.key != null 检查存在性
	labelAccessor := make(map[string]interface{})
	for k, v := range labels {
		labelAccessor[k] = v.(map[string]interface{})["value"]
	}

	return map[string]interface{}{
		"movie": movie,
		"item":  item,
		"label": labelAccessor,
		"mctx":  mctx,
	}
}
