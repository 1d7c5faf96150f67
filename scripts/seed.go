// 导入初始课程内容脚本
//
// 从 configs/seed.yaml 读取字母测验题、单词手势与课程，写入空表。
// 已有数据的表会被跳过，加 -force 则无条件追加。
//
// 用法: go run scripts/seed.go [-config configs] [-file configs/seed.yaml] [-force]

package main

import (
	"flag"
	"log"

	"signlearn_backend/internal/config"
	"signlearn_backend/pkg/database"
	"signlearn_backend/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	seedPath := flag.String("file", "configs/seed.yaml", "种子数据文件")
	force := flag.Bool("force", false, "即使表中已有数据也写入")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	seed, err := database.LoadSeedFile(*seedPath)
	if err != nil {
		log.Fatalf("解析种子数据失败: %v", err)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, true)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("开始导入种子数据...")
	stats, err := database.ApplySeed(db, seed, *force)
	if err != nil {
		log.Fatalf("导入失败: %v", err)
	}
	log.Printf("导入完成: 题目 %d 条, 单词 %d 条, 课程 %d 条", stats.Questions, stats.Words, stats.Lessons)
}
