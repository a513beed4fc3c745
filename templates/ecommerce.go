package templates

var ecommerceTemplate = &Template{
	Name:        "ecommerce",
	Description: "Customers, products and orders on PostgreSQL",
	Schema: `datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

model Customer {
  id        String   @id @default(uuid())
  email     String   @unique
  name      String
  orders    Order[]
  createdAt DateTime @default(now())
}

model Product {
  id    String      @id @default(uuid())
  sku   String      @unique
  name  String
  price Decimal
  items OrderItem[]
}

model Order {
  id         String      @id @default(uuid())
  customer   Customer    @relation(fields: [customerId], references: [id])
  customerId String
  status     OrderStatus @default(PENDING)
  items      OrderItem[]
  placedAt   DateTime    @default(now())
}

model OrderItem {
  id        String  @id @default(uuid())
  order     Order   @relation(fields: [orderId], references: [id])
  orderId   String
  product   Product @relation(fields: [productId], references: [id])
  productId String
  quantity  Int     @default(1)
  unitPrice Decimal

  @@unique([orderId, productId])
}

enum OrderStatus {
  PENDING
  PAID
  SHIPPED
  DELIVERED
  CANCELLED
}
`,
	Config: `schema:
  path: schema.dml

server:
  port: 8080
  cache_size: 256

env:
  DATABASE_URL: postgres://localhost:5432/shop?sslmode=disable
`,
}
