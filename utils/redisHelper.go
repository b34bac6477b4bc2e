package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
)

// remove AllowedPaths:Role:id
func ClearPathsCache(roleId int) error {
	return config.RemoveRedisKey("AllowedPaths:Role:" + fmt.Sprint(roleId))
}

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis */

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.SetRedisObject(key, &obj, GetCacheLifespan())
}

// store list under the type's list key
func StoreRedisList[T any](obj any) error {
	key := GetTypeName[T]() + "List"
	return config.SetRedisObject(key, &obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

func RetrieveRedisList[T any]() ([]*T, error) {
	key := GetTypeName[T]() + "List"
	var result []*T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

func RemoveRedisList[T any]() error {
	return config.RemoveRedisKey(GetTypeName[T]() + "List")
}

func RemoveRedisItem[T any](id int) error {
	return config.RemoveRedisKey(GetTypeName[T]() + ":" + fmt.Sprint(id))
}

// RemoveRedisBoth drops the item key and the list key for the model.
func RemoveRedisBoth[T any](id int) error {
	if err := RemoveRedisItem[T](id); err != nil {
		return err
	}
	return RemoveRedisList[T]()
}
