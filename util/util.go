package util

import (
	"os"

	"github.com/cloudflare/cfssl/log"
)

// 判断文件或文件夹是否存在
func FileExists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		log.Info(err)
		return false
	}
	return true
}
