// Package basehdl chứa helper dùng chung cho handler của các domain: envelope response,
// bắt panic, parse body/param và lấy Actor từ request.
package basehdl

import (
	"fmt"
	"runtime/debug"
	"strconv"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/api/middleware"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"
	"soug_elwahah/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JSONResponse trả về JSON response với Content-Type: application/json; charset=utf-8
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// HandleResponse chuẩn hóa response: lỗi → envelope lỗi theo common.Error, thành công → 200 + data
func HandleResponse(c fiber.Ctx, data interface{}, err error) error {
	if err != nil {
		if common.HTTPStatus(err) >= common.StatusInternalServerError {
			logger.WithRequest(c).WithError(err).Error("Request thất bại")
		}
		return middleware.HandleErrorResponse(c, err)
	}
	return JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// HandleCreated trả về 201 cho thao tác tạo mới
func HandleCreated(c fiber.Ctx, data interface{}, err error) error {
	if err != nil {
		return HandleResponse(c, nil, err)
	}
	return JSONResponse(c, common.StatusCreated, fiber.Map{
		"code":    common.StatusCreated,
		"message": common.MsgCreated,
		"data":    data,
		"status":  "success",
	})
}

// SafeHandlerWrapper bọc handler với recover để luôn trả response cho client kể cả khi panic
func SafeHandlerWrapper(c fiber.Ctx, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithRequest(c).WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Panic trong handler")
			err = HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Lỗi hệ thống không mong muốn: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	return fn()
}

// ParseBody bind JSON body vào req rồi chạy validator
func ParseBody(c fiber.Ctx, req interface{}) error {
	if err := c.Bind().Body(req); err != nil {
		return common.WithDetails(common.ErrInvalidFormat, err.Error())
	}
	if err := global.Validate.Struct(req); err != nil {
		return common.WithDetails(common.ErrValidation, global.ValidationDetails(err))
	}
	return nil
}

// ParseObjectID đọc path param dạng ObjectID
func ParseObjectID(c fiber.Ctx, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return primitive.NilObjectID, common.WithDetails(common.ErrInvalidFormat, map[string]string{name: c.Params(name)})
	}
	return id, nil
}

// ParsePage đọc page/limit từ query string
func ParsePage(c fiber.Ctx) (int64, int64) {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	return page, limit
}

// Actor lấy Actor do auth middleware gắn vào request
func Actor(c fiber.Ctx) (authmodels.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return authmodels.Actor{}, common.ErrTokenMissing
	}
	return actor, nil
}
