package database

import (
	"github.com/Haibread/guildsync/logging"
	"github.com/Haibread/guildsync/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB
var log *zap.SugaredLogger

func init() {
	log = logging.InitLogger()
}

func InitDB(path string) {
	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatal("Failed to connect to the database")
	}

	DB.AutoMigrate(&models.Template{})
	DB.AutoMigrate(&models.TemplateCategory{})
	DB.AutoMigrate(&models.TemplateChannel{})
	DB.AutoMigrate(&models.CategoryPermission{})
	DB.AutoMigrate(&models.ChannelPermission{})
	DB.AutoMigrate(&models.GuildConfig{})
}

func GetDB() *gorm.DB {
	return DB
}
