package templates

var minimalTemplate = &Template{
	Name:        "minimal",
	Description: "Single model on SQLite, no external services",
	Schema: `datasource db {
  provider = "sqlite"
  url      = "file:./dev.db"
}

model User {
  id        Int      @id @default(autoincrement())
  email     String   @unique
  name      String?
  createdAt DateTime @default(now())
}
`,
	Config: `schema:
  path: schema.dml
`,
}
