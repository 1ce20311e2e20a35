package storage

import (
	"workforce/config"
	"workforce/storage/database"
	"workforce/storage/mq"
	"workforce/storage/redis"
)

// Init 统一初始化存储层。Redis 和 MQ 可以通过配置关闭
func Init() error {
	if err := database.Init(); err != nil {
		return err
	}

	if config.Cfg.RedisEnabled {
		if err := redis.Init(); err != nil {
			return err
		}
	}

	if config.Cfg.MQEnabled {
		if err := mq.Init(); err != nil {
			return err
		}
	}

	return nil
}
