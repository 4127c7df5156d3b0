// Package moviematch 是一个双人电影匹配推荐引擎。
//
// 设计要点：
// - Pipeline-first: 一次推荐 = Recall → Filter → Rank → ReRank 的 Node 链
// - 双人打分: 两位用户的分数按“保守满足”规则融合（min 为主、mean 兜底）
// - 在线学习: 反馈事件实时驱动类型权重 EMA 与嵌入向量 delta 更新
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 策略驱动
package moviematch

import "github.com/rushteam/moviematch/pipeline"

// 轻量 facade：便于用户直接 import "moviematch" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
