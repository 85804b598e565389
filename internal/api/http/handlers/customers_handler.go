package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/pkg/util/validate"
)

// CustomersHandler manages customer endpoints.
type CustomersHandler struct {
	service   *service.CustomerService
	validator *validate.Validator
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(customerService *service.CustomerService, validator *validate.Validator) *CustomersHandler {
	return &CustomersHandler{service: customerService, validator: validator}
}

// CreateCustomer POST /customers.
func (h *CustomersHandler) CreateCustomer(c *fiber.Ctx) error {
	var req dto.CreateCustomerRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	customer, err := h.service.CreateCustomer(c.UserContext(), service.CustomerCreateInput{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// ListCustomers GET /customers?customer_name=.
func (h *CustomersHandler) ListCustomers(c *fiber.Ctx) error {
	customers, err := h.service.ListCustomers(c.UserContext(), queryString(c, "customer_name"))
	if err != nil {
		return err
	}
	items := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, dto.NewCustomerResponse(&customers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteCustomer DELETE /customers/:id.
func (h *CustomersHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteCustomer(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "deleted": true}})
}
