package templates

var blogTemplate = &Template{
	Name:        "blog",
	Description: "Users, posts and comments on PostgreSQL, with generated Go structs",
	Schema: `datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

generator models {
  provider = "go"
  output   = "./internal/models"
}

/// A registered author or reader.
model User {
  id        String    @id @default(cuid())
  email     String    @unique
  name      String?
  role      Role      @default(READER)
  posts     Post[]
  comments  Comment[]
  createdAt DateTime  @default(now())
}

model Post {
  id        String    @id @default(cuid())
  title     String
  body      String?
  published Boolean   @default(false)
  author    User      @relation(fields: [authorId], references: [id])
  authorId  String
  comments  Comment[]
  createdAt DateTime  @default(now())
  updatedAt DateTime  @updatedAt

  @@index([authorId])
}

model Comment {
  id       String @id @default(cuid())
  body     String
  post     Post   @relation(fields: [postId], references: [id])
  postId   String
  author   User   @relation(fields: [authorId], references: [id])
  authorId String
}

enum Role {
  READER
  AUTHOR
  ADMIN
}
`,
	Config: `schema:
  path: schema.dml

registry:
  enabled: true
  path: schemas.db

env:
  DATABASE_URL: postgres://localhost:5432/blog?sslmode=disable
`,
}
