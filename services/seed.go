package services

type seedQuestion struct {
	text       string
	options    [4]string
	correct    int
	category   string
	difficulty string
	points     int
}

var seedQuestions = []seedQuestion{
	// Science
	{"What is the chemical symbol for gold?", [4]string{"Au", "Ag", "Fe", "Cu"}, 0, "Science", "easy", 100},
	{"What planet is known as the Red Planet?", [4]string{"Venus", "Mars", "Jupiter", "Saturn"}, 1, "Science", "easy", 100},
	{"What is the speed of light in vacuum?", [4]string{"299,792 km/s", "150,000 km/s", "400,000 km/s", "250,000 km/s"}, 0, "Science", "medium", 200},
	{"What is the powerhouse of the cell?", [4]string{"Nucleus", "Ribosome", "Mitochondria", "Chloroplast"}, 2, "Science", "easy", 100},
	{"What is the atomic number of Carbon?", [4]string{"6", "12", "8", "14"}, 0, "Science", "medium", 200},

	// Geography
	{"What is the capital of France?", [4]string{"London", "Berlin", "Paris", "Madrid"}, 2, "Geography", "easy", 100},
	{"Which is the largest ocean on Earth?", [4]string{"Atlantic", "Indian", "Arctic", "Pacific"}, 3, "Geography", "easy", 100},
	{"What is the longest river in the world?", [4]string{"Amazon", "Nile", "Mississippi", "Yangtze"}, 1, "Geography", "medium", 200},
	{"How many continents are there?", [4]string{"5", "6", "7", "8"}, 2, "Geography", "easy", 100},
	{"What is the smallest country in the world?", [4]string{"Monaco", "Vatican City", "San Marino", "Liechtenstein"}, 1, "Geography", "medium", 200},

	// History
	{"In what year did World War II end?", [4]string{"1943", "1944", "1945", "1946"}, 2, "History", "easy", 100},
	{"Who was the first president of the United States?", [4]string{"Thomas Jefferson", "George Washington", "John Adams", "Benjamin Franklin"}, 1, "History", "easy", 100},
	{"What year did the Titanic sink?", [4]string{"1910", "1911", "1912", "1913"}, 2, "History", "medium", 200},
	{"Who wrote the Declaration of Independence?", [4]string{"George Washington", "John Adams", "Thomas Jefferson", "Benjamin Franklin"}, 2, "History", "medium", 200},
	{"What ancient wonder was located in Alexandria?", [4]string{"Colossus", "Lighthouse", "Hanging Gardens", "Mausoleum"}, 1, "History", "hard", 300},

	// Technology
	{"What does HTML stand for?", [4]string{"Hyper Text Markup Language", "High Tech Modern Language", "Home Tool Markup Language", "Hyperlinks and Text Markup Language"}, 0, "Technology", "easy", 100},
	{"Who is the founder of Microsoft?", [4]string{"Steve Jobs", "Bill Gates", "Elon Musk", "Mark Zuckerberg"}, 1, "Technology", "easy", 100},
	{"What year was the first iPhone released?", [4]string{"2005", "2006", "2007", "2008"}, 2, "Technology", "medium", 200},
	{"What does CPU stand for?", [4]string{"Central Processing Unit", "Computer Personal Unit", "Central Processor Unit", "Central Programming Unit"}, 0, "Technology", "easy", 100},
	{"Which programming language is known as the 'language of the web'?", [4]string{"Python", "Java", "JavaScript", "C++"}, 2, "Technology", "medium", 200},

	// Sports
	{"How many players are on a soccer team?", [4]string{"9", "10", "11", "12"}, 2, "Sports", "easy", 100},
	{"What sport is played at Wimbledon?", [4]string{"Golf", "Tennis", "Cricket", "Badminton"}, 1, "Sports", "easy", 100},
	{"How many points is a touchdown worth in American football?", [4]string{"5", "6", "7", "8"}, 1, "Sports", "medium", 200},
	{"What is the diameter of a basketball hoop in inches?", [4]string{"16", "18", "20", "22"}, 1, "Sports", "hard", 300},
	{"Which country won the FIFA World Cup in 2018?", [4]string{"Germany", "Brazil", "France", "Argentina"}, 2, "Sports", "medium", 200},
}
