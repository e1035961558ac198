// Command tokengen ký JWT dùng khi phát triển: go run ./cmd/tokengen -user <hex> -roles customer,driver
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"soug_elwahah/config"
	authmodels "soug_elwahah/internal/api/auth/models"
	authsvc "soug_elwahah/internal/api/auth/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	user := flag.String("user", "", "userId (hex); rỗng thì sinh mới")
	roles := flag.String("roles", "customer", "danh sách vai trò, phân cách bởi dấu phẩy")
	active := flag.String("active", "", "vai trò đang dùng; rỗng thì lấy vai trò đầu tiên")
	ttl := flag.Duration("ttl", 24*time.Hour, "thời hạn token")
	flag.Parse()

	cfg := config.NewConfig()
	if cfg == nil {
		fmt.Fprintln(os.Stderr, "không đọc được cấu hình (cần JWT_SECRET)")
		os.Exit(1)
	}

	uid := primitive.NewObjectID()
	if *user != "" {
		var err error
		if uid, err = primitive.ObjectIDFromHex(*user); err != nil {
			fmt.Fprintf(os.Stderr, "userId không hợp lệ: %v\n", err)
			os.Exit(1)
		}
	}

	var list []authmodels.Role
	for _, r := range strings.Split(*roles, ",") {
		list = append(list, authmodels.Role(strings.TrimSpace(r)))
	}
	set := authmodels.NewRoleSet(list...)
	if len(set) == 0 {
		fmt.Fprintln(os.Stderr, "không có vai trò hợp lệ")
		os.Exit(1)
	}
	activeRole := set[0]
	if *active != "" {
		activeRole = authmodels.Role(*active)
	}

	tokens, err := authsvc.NewTokenService(cfg.JwtSecret)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	token, err := tokens.Issue(uid, set, activeRole, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("userId: %s\nroles:  %s\ntoken:  %s\n", uid.Hex(), strings.Join(set.Strings(), ","), token)
}
