package users

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		if err := requireSuperadmin(c); err != nil {
			return err
		}
		list, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(list)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "me" {
			id, _ = c.Locals("user_id").(string)
		}
		if role, _ := c.Locals("role").(string); role != "superadmin" {
			if uid, _ := c.Locals("user_id").(string); uid != id {
				return fiber.NewError(fiber.StatusForbidden, "no permission")
			}
		}
		user, err := svc.Get(c.Context(), id)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(user)
	})

	r.Post("/", func(c *fiber.Ctx) error {
		if err := requireSuperadmin(c); err != nil {
			return err
		}
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		user, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"msg": "User created", "user": user})
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		if err := requireSuperadmin(c); err != nil {
			return err
		}
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		user, err := svc.Update(c.Context(), c.Params("id"), req)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"msg": "User updated", "user": user})
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if err := requireSuperadmin(c); err != nil {
			return err
		}
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"msg": "User deleted"})
	})
}

func requireSuperadmin(c *fiber.Ctx) error {
	if role, _ := c.Locals("role").(string); role != "superadmin" {
		return fiber.NewError(fiber.StatusForbidden, "no permission")
	}
	return nil
}

func serviceError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
